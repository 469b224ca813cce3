package debug

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/nokia/red-debugger/pkg/agent"
)

// DebuggerPreferences are the user settings the debug controller consults.
type DebuggerPreferences interface {
	ShouldPauseOnError() bool
	ShouldGoIntoLibKeywords() bool
}

// Preferences is a DebuggerPreferences with a pause-on-error setting that is
// read anew at every query.
type Preferences struct {
	PauseOnError      func() bool
	GoIntoLibKeywords bool
}

func (p Preferences) ShouldPauseOnError() bool {
	return p.PauseOnError != nil && p.PauseOnError()
}

func (p Preferences) ShouldGoIntoLibKeywords() bool { return p.GoIntoLibKeywords }

// PauseReasonListener is told why the execution paused.
type PauseReasonListener interface {
	PausedOnBreakpoint(bp LineBreakpoint)
	PausedByUser()
	PausedByStepping()
	PausedOnError(msg string)
	PausedAfterVariableChange(frameLevel int)
}

// SuspendReason is the reason of a current or pending pause.
type SuspendReason int

const (
	SuspendUserRequest SuspendReason = iota
	SuspendBreakpoint
	SuspendStepping
	SuspendVariableChange
	SuspendErroneousState
)

func (r SuspendReason) String() string {
	switch r {
	case SuspendUserRequest:
		return "USER_REQUEST"
	case SuspendBreakpoint:
		return "BREAKPOINT"
	case SuspendStepping:
		return "STEPPING"
	case SuspendVariableChange:
		return "VARIABLE_CHANGE"
	case SuspendErroneousState:
		return "ERRONEOUS_STATE"
	}
	return fmt.Sprintf("SuspendReason(%d)", int(r))
}

// SteppingMode is the granularity of a step request.
type SteppingMode int

const (
	StepInto SteppingMode = iota
	StepOver
	StepReturn
)

func (m SteppingMode) String() string {
	switch m {
	case StepInto:
		return "INTO"
	case StepOver:
		return "OVER"
	case StepReturn:
		return "RETURN"
	}
	return fmt.Sprintf("SteppingMode(%d)", int(m))
}

// SuspensionData explains a current or pending pause. Which fields are set
// depends on Reason.
type SuspensionData struct {
	Reason SuspendReason

	Mode             SteppingMode // SuspendStepping
	WhenSteppingEnds func()       // SuspendStepping
	Breakpoint       LineBreakpoint
	FrameLevel       int    // SuspendVariableChange
	Error            string // SuspendErroneousState
}

var conditionSeparator = regexp.MustCompile(`\s{2,}|\t`)

// UserProcessDebugController extends UserProcessController with
// breakpoints, stepping and pausing on errors.
type UserProcessDebugController struct {
	*UserProcessController

	stack       *Stacktrace
	preferences DebuggerPreferences

	stateMu      sync.Mutex
	listeners    []PauseReasonListener
	suspension   *SuspensionData
	lastPoint    agent.PausingPoint
	hasLastPoint bool
}

// NewUserProcessDebugController creates a debug controller reading stack.
func NewUserProcessDebugController(stack *Stacktrace, prefs DebuggerPreferences, opts ...ControllerOption) *UserProcessDebugController {
	return &UserProcessDebugController{
		UserProcessController: NewUserProcessController(opts...),
		stack:                 stack,
		preferences:           prefs,
	}
}

var _ Controller = (*UserProcessDebugController)(nil)

// WhenSuspended registers a listener told about every pause.
func (c *UserProcessDebugController) WhenSuspended(l PauseReasonListener) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// SuspensionData returns the current suspension.
func (c *UserProcessDebugController) SuspensionData() (SuspensionData, bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.suspension == nil {
		return SuspensionData{}, false
	}
	return *c.suspension, true
}

func (c *UserProcessDebugController) setSuspension(d *SuspensionData) {
	c.stateMu.Lock()
	c.suspension = d
	c.stateMu.Unlock()
}

// LastPausingPoint returns the pausing point of the latest query.
func (c *UserProcessDebugController) LastPausingPoint() (agent.PausingPoint, bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.lastPoint, c.hasLastPoint
}

func (c *UserProcessDebugController) setLastPausingPoint(p agent.PausingPoint) {
	c.stateMu.Lock()
	c.lastPoint, c.hasLastPoint = p, true
	c.stateMu.Unlock()
}

// IsStepping reports whether a step request is in progress.
func (c *UserProcessDebugController) IsStepping() bool {
	d, ok := c.SuspensionData()
	return ok && d.Reason == SuspendStepping
}

// ConditionEvaluated keeps the breakpoint suspension only when the condition
// held. A condition that could not be evaluated counts as false.
func (c *UserProcessDebugController) ConditionEvaluated(ev agent.ConditionEvaluatedEvent) {
	if ev.Failed() || !ev.Result {
		if ev.Failed() {
			c.logger.Warn("breakpoint condition failed", "error", ev.Error)
		}
		c.setSuspension(nil)
	}
}

// ExecutionPaused tells the listeners why the agent paused, ends any step in
// progress and returns the response for the paused agent.
func (c *UserProcessDebugController) ExecutionPaused() *agent.FutureResponse {
	c.stateMu.Lock()
	data := c.suspension
	c.suspension = nil
	listeners := append([]PauseReasonListener(nil), c.listeners...)
	c.stateMu.Unlock()

	if data != nil {
		c.logger.Debug("execution paused", "reason", data.Reason.String())
		for _, l := range listeners {
			switch data.Reason {
			case SuspendBreakpoint:
				l.PausedOnBreakpoint(data.Breakpoint)
			case SuspendUserRequest:
				l.PausedByUser()
			case SuspendStepping:
				l.PausedByStepping()
			case SuspendVariableChange:
				l.PausedAfterVariableChange(data.FrameLevel)
			case SuspendErroneousState:
				l.PausedOnError(data.Error)
			}
		}
	}
	for _, f := range c.stack.Frames() {
		f.Unmark(MarkerStepping)
	}
	return c.UserProcessController.ExecutionPaused()
}

// TakeCurrentResponse answers a pausing point. A queued user request wins;
// otherwise pausing on error, breakpoints and stepping are checked in that
// order.
func (c *UserProcessDebugController) TakeCurrentResponse(point agent.PausingPoint) (agent.Response, bool) {
	c.setLastPausingPoint(point)
	if r, ok := c.UserProcessController.TakeCurrentResponse(point); ok {
		return r, true
	}
	if r, ok := c.pauseOnErrorResponse(point); ok {
		return r, true
	}
	if r, ok := c.breakpointHitResponse(point); ok {
		return r, true
	}
	return c.userSteppingResponse(point)
}

func (c *UserProcessDebugController) pauseOnErrorResponse(point agent.PausingPoint) (agent.Response, bool) {
	if point != agent.PreStartKeyword && point != agent.StartKeyword {
		return nil, false
	}
	if !c.stack.AnyFrame((*StackFrame).IsErroneous) || c.stack.AnyFrame((*StackFrame).IsMarkedError) {
		return nil, false
	}
	// asked last since it may depend on the user
	if !c.preferences.ShouldPauseOnError() {
		return nil, false
	}
	// a frame marked here may suspend again once it is popped
	for _, f := range c.stack.Frames() {
		if f.IsErroneous() {
			f.Mark(MarkerError)
		}
	}
	var msg string
	if top, ok := c.stack.Peek(); ok {
		msg, _ = top.ErrorMessage()
	}
	c.setSuspension(&SuspensionData{Reason: SuspendErroneousState, Error: msg})
	return agent.Pause{}, true
}

func (c *UserProcessDebugController) breakpointHitResponse(point agent.PausingPoint) (agent.Response, bool) {
	if point != agent.PreStartKeyword {
		return nil, false
	}
	top, ok := c.stack.Peek()
	if !ok {
		return nil, false
	}
	bp, ok := top.Breakpoint()
	if !ok || !bp.EvaluateHitCount() {
		return nil, false
	}
	c.setSuspension(&SuspensionData{Reason: SuspendBreakpoint, Breakpoint: bp})
	if bp.IsConditionEnabled() {
		return agent.EvaluateCondition{Condition: splitCondition(bp.Condition())}, true
	}
	return agent.Pause{}, true
}

func splitCondition(cond string) []string {
	parts := conditionSeparator.Split(cond, -1)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func (c *UserProcessDebugController) userSteppingResponse(point agent.PausingPoint) (agent.Response, bool) {
	data, ok := c.SuspensionData()
	if !ok || data.Reason != SuspendStepping {
		return nil, false
	}
	var pause bool
	switch data.Mode {
	case StepInto:
		pause = c.shouldPauseOnStepInto(point)
	case StepOver:
		pause = c.shouldPauseOnStepOver(point)
	case StepReturn:
		pause = c.shouldPauseOnStepReturn(point)
	}
	if !pause {
		return nil, false
	}
	if data.WhenSteppingEnds != nil {
		data.WhenSteppingEnds()
	}
	return agent.Pause{}, true
}

func (c *UserProcessDebugController) topIsLibraryKeyword() bool {
	top, ok := c.stack.Peek()
	return ok && top.IsLibraryKeywordFrame()
}

func (c *UserProcessDebugController) shouldPauseOnStepInto(point agent.PausingPoint) bool {
	// a loop is never entered directly; the pause comes with its iteration
	if c.stack.HasCategoryOnTop(CategoryFor) {
		return false
	}
	if c.preferences.ShouldGoIntoLibKeywords() {
		return point != agent.EndKeyword
	}
	return (point == agent.PreStartKeyword || point == agent.StartKeyword) && !c.topIsLibraryKeyword()
}

func (c *UserProcessDebugController) shouldPauseOnStepOver(point agent.PausingPoint) bool {
	noneMarked := !c.stack.AnyFrame((*StackFrame).IsMarkedStepping)
	switch point {
	case agent.StartKeyword:
		// inside loops the pause comes when an iteration starts
		if !c.stack.HasCategoryOnTop(CategoryForItem) {
			return false
		}
		frames := c.stack.Frames()
		return noneMarked || len(frames) > 1 && frames[1].IsMarkedStepping()
	case agent.PreStartKeyword:
		if c.stack.HasCategoryOnTop(CategoryFor) {
			return false
		}
		top, ok := c.stack.Peek()
		return noneMarked || ok && top.IsMarkedStepping()
	}
	return false
}

func (c *UserProcessDebugController) shouldPauseOnStepReturn(point agent.PausingPoint) bool {
	// the pause comes once the marked frame is gone
	if point != agent.PreStartKeyword && point != agent.PreEndKeyword {
		return false
	}
	if !c.preferences.ShouldGoIntoLibKeywords() && c.topIsLibraryKeyword() {
		return false
	}
	return !c.stack.AnyFrame((*StackFrame).IsMarkedStepping)
}

// Pause asks the agent to pause at the next pausing point.
func (c *UserProcessDebugController) Pause(whenSent func()) {
	c.setSuspension(&SuspensionData{Reason: SuspendUserRequest})
	c.UserProcessController.Pause(whenSent)
}

// StepInto resumes and pauses at the next keyword, entering the current one.
func (c *UserProcessDebugController) StepInto(whenSent, whenSteppingEnds func()) {
	c.step(StepInto, whenSent, whenSteppingEnds)
}

// StepOver resumes and pauses after frame completes. At START_KEYWORD the
// keyword has already been entered, so its parent is stepped over instead.
func (c *UserProcessDebugController) StepOver(frame *StackFrame, whenSent, whenSteppingEnds func()) {
	if point, ok := c.LastPausingPoint(); ok && point == agent.StartKeyword {
		if parent, ok := c.stack.FindParentFrame(frame); ok {
			parent.Mark(MarkerStepping)
		}
	} else {
		frame.Mark(MarkerStepping)
	}
	c.step(StepOver, whenSent, whenSteppingEnds)
}

// StepReturn resumes and pauses once frame has returned.
func (c *UserProcessDebugController) StepReturn(frame *StackFrame, whenSent, whenSteppingEnds func()) {
	frame.Mark(MarkerStepping)
	c.step(StepReturn, whenSent, whenSteppingEnds)
}

func (c *UserProcessDebugController) step(mode SteppingMode, whenSent, whenSteppingEnds func()) {
	c.setSuspension(&SuspensionData{Reason: SuspendStepping, Mode: mode, WhenSteppingEnds: whenSteppingEnds})
	c.Resume(whenSent)
}

// ChangeVariable asks the agent to assign values to a variable of frame.
func (c *UserProcessDebugController) ChangeVariable(frame *StackFrame, v StackFrameVariable, values []string) {
	c.ChangeVariableInnerValue(frame, v, nil, values)
}

// ChangeVariableInnerValue asks the agent to assign values to the element of
// a list or dictionary variable reached through path.
func (c *UserProcessDebugController) ChangeVariableInnerValue(frame *StackFrame, v StackFrameVariable, path []any, values []string) {
	resp := agent.ChangeVariable{Variable: v.Name, Scope: v.Scope, Level: frame.Level(), Path: path, Values: values}
	c.setSuspension(&SuspensionData{Reason: SuspendVariableChange, FrameLevel: frame.Level()})
	c.offer(resp, func() {})
}
