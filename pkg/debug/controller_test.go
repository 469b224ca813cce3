package debug

import (
	"context"
	"testing"
	"time"

	"github.com/nokia/red-debugger/pkg/agent"
)

var allPoints = []agent.PausingPoint{agent.PreStartKeyword, agent.StartKeyword, agent.PreEndKeyword, agent.EndKeyword}

func prefs(pauseOnError, goIntoLib bool) Preferences {
	return Preferences{PauseOnError: func() bool { return pauseOnError }, GoIntoLibKeywords: goIntoLib}
}

func stackOf(frames ...*StackFrame) *Stacktrace {
	s := NewStacktrace()
	for _, f := range frames {
		s.Push(f)
	}
	return s
}

// suiteTestKeyword builds Suite/Test/keyword frames with the given keyword context.
func suiteTestKeyword(kwCtx StackFrameContext) (*Stacktrace, *StackFrame) {
	kw := NewStackFrame("keyword", CategoryKeyword, 2, kwCtx)
	return stackOf(
		NewStackFrame("Suite", CategorySuite, 0, &fakeContext{}),
		NewStackFrame("Test", CategoryTest, 1, &fakeContext{}),
		kw,
	), kw
}

type counter struct{ n int }

func (c *counter) run() { c.n++ }

type recordingPauseListener struct {
	reasons []string
	bp      LineBreakpoint
	err     string
	level   int
}

func (l *recordingPauseListener) PausedOnBreakpoint(bp LineBreakpoint) {
	l.reasons = append(l.reasons, "breakpoint")
	l.bp = bp
}
func (l *recordingPauseListener) PausedByUser()     { l.reasons = append(l.reasons, "user") }
func (l *recordingPauseListener) PausedByStepping() { l.reasons = append(l.reasons, "stepping") }
func (l *recordingPauseListener) PausedOnError(msg string) {
	l.reasons = append(l.reasons, "error")
	l.err = msg
}
func (l *recordingPauseListener) PausedAfterVariableChange(level int) {
	l.reasons = append(l.reasons, "variable")
	l.level = level
}

func isPause(r agent.Response) bool {
	_, ok := r.(agent.Pause)
	return ok
}

func TestController_NothingToDoGivesNoResponse(t *testing.T) {
	stack, _ := suiteTestKeyword(&fakeContext{})
	c := NewUserProcessDebugController(stack, prefs(true, true))
	for _, p := range allPoints {
		if r, ok := c.TakeCurrentResponse(p); ok {
			t.Errorf("%v: got %T", p, r)
		}
	}
}

func TestController_UserPauseOnEmptyStack(t *testing.T) {
	c := NewUserProcessDebugController(NewStacktrace(), prefs(false, false))
	cb := &counter{}
	c.Pause(cb.run)

	r, ok := c.TakeCurrentResponse(agent.StartKeyword)
	if !ok || !isPause(r) {
		t.Fatalf("got %v, want Pause", r)
	}
	if cb.n != 1 {
		t.Errorf("callback ran %d times", cb.n)
	}
	if d, _ := c.SuspensionData(); d.Reason != SuspendUserRequest {
		t.Errorf("reason = %v", d.Reason)
	}
	if _, ok := c.TakeCurrentResponse(agent.StartKeyword); ok {
		t.Error("queued response consumed twice")
	}
}

func TestController_ManualResponsesAreFIFO(t *testing.T) {
	c := NewUserProcessDebugController(NewStacktrace(), prefs(false, false))
	c.Terminate(nil)
	c.Disconnect(nil)
	if c.PendingResponses() != 2 {
		t.Fatalf("pending = %d", c.PendingResponses())
	}
	if r, _ := c.TakeCurrentResponse(agent.PreEndKeyword); r.Name() != "terminate" {
		t.Errorf("first = %s", r.Name())
	}
	if r, _ := c.TakeCurrentResponse(agent.PreEndKeyword); r.Name() != "disconnect" {
		t.Errorf("second = %s", r.Name())
	}
}

func TestController_PauseOnError(t *testing.T) {
	stack, kw := suiteTestKeyword(erroneousContext("boom"))
	c := NewUserProcessDebugController(stack, prefs(true, false))

	r, ok := c.TakeCurrentResponse(agent.PreStartKeyword)
	if !ok || !isPause(r) {
		t.Fatalf("got %v, want Pause", r)
	}
	if !kw.IsMarkedError() {
		t.Error("erroneous frame not marked")
	}
	d, _ := c.SuspensionData()
	if d.Reason != SuspendErroneousState || d.Error != "boom" {
		t.Errorf("suspension = %+v", d)
	}
	if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); ok {
		t.Error("repeated query paused again")
	}
}

func TestController_PauseOnErrorOnlyAtStartPoints(t *testing.T) {
	for _, p := range []agent.PausingPoint{agent.PreEndKeyword, agent.EndKeyword} {
		stack, _ := suiteTestKeyword(erroneousContext("boom"))
		c := NewUserProcessDebugController(stack, prefs(true, false))
		if _, ok := c.TakeCurrentResponse(p); ok {
			t.Errorf("%v: paused on error", p)
		}
	}
	stack, kw := suiteTestKeyword(erroneousContext("boom"))
	c := NewUserProcessDebugController(stack, prefs(false, false))
	if _, ok := c.TakeCurrentResponse(agent.StartKeyword); ok {
		t.Error("paused with pause-on-error disabled")
	}
	if kw.IsMarkedError() {
		t.Error("frame marked with pause-on-error disabled")
	}
}

func TestController_BreakpointWithoutCondition(t *testing.T) {
	bp := &fakeBreakpoint{fireFrom: 1}
	stack, _ := suiteTestKeyword(&fakeContext{bp: bp})
	c := NewUserProcessDebugController(stack, prefs(false, false))

	if _, ok := c.TakeCurrentResponse(agent.EndKeyword); ok {
		t.Error("breakpoint fired at END_KEYWORD")
	}
	r, ok := c.TakeCurrentResponse(agent.PreStartKeyword)
	if !ok || !isPause(r) {
		t.Fatalf("got %v, want Pause", r)
	}
	if d, _ := c.SuspensionData(); d.Reason != SuspendBreakpoint || d.Breakpoint != bp {
		t.Errorf("suspension = %+v", d)
	}
}

func TestController_BreakpointHitCount(t *testing.T) {
	bp := &fakeBreakpoint{fireFrom: 3}
	stack, _ := suiteTestKeyword(&fakeContext{bp: bp})
	c := NewUserProcessDebugController(stack, prefs(false, false))

	for i := 1; i <= 2; i++ {
		if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); ok {
			t.Fatalf("hit %d paused", i)
		}
	}
	if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); !ok {
		t.Error("third hit should pause")
	}
}

func TestController_ConditionalBreakpoint(t *testing.T) {
	bp := &fakeBreakpoint{fireFrom: 1, condition: "Should Be Equal  ${x}\t1  "}
	stack, _ := suiteTestKeyword(&fakeContext{bp: bp})
	c := NewUserProcessDebugController(stack, prefs(false, false))

	r, ok := c.TakeCurrentResponse(agent.PreStartKeyword)
	ec, isEval := r.(agent.EvaluateCondition)
	if !ok || !isEval {
		t.Fatalf("got %v, want EvaluateCondition", r)
	}
	want := []string{"Should Be Equal", "${x}", "1"}
	if len(ec.Condition) != len(want) {
		t.Fatalf("condition = %q", ec.Condition)
	}
	for i := range want {
		if ec.Condition[i] != want[i] {
			t.Errorf("condition = %q, want %q", ec.Condition, want)
		}
	}
	d, _ := c.SuspensionData()
	if d.Reason != SuspendBreakpoint {
		t.Errorf("reason = %v", d.Reason)
	}
}

func TestController_ConditionResults(t *testing.T) {
	tests := []struct {
		name string
		ev   agent.ConditionEvaluatedEvent
		keep bool
	}{
		{"true", agent.ConditionEvaluatedEvent{Result: true}, true},
		{"false", agent.ConditionEvaluatedEvent{Result: false}, false},
		{"error", agent.ConditionEvaluatedEvent{Error: "No keyword with name 'x' found."}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewUserProcessDebugController(NewStacktrace(), prefs(false, false))
			c.setSuspension(&SuspensionData{Reason: SuspendBreakpoint, Breakpoint: &fakeBreakpoint{}})
			c.ConditionEvaluated(tt.ev)
			if _, ok := c.SuspensionData(); ok != tt.keep {
				t.Errorf("suspension kept = %v, want %v", ok, tt.keep)
			}
		})
	}
}

func TestController_ExecutionPausedNotifiesAndClears(t *testing.T) {
	bp := &fakeBreakpoint{}
	tests := []struct {
		data   SuspensionData
		reason string
	}{
		{SuspensionData{Reason: SuspendBreakpoint, Breakpoint: bp}, "breakpoint"},
		{SuspensionData{Reason: SuspendUserRequest}, "user"},
		{SuspensionData{Reason: SuspendStepping, Mode: StepOver}, "stepping"},
		{SuspensionData{Reason: SuspendVariableChange, FrameLevel: 2}, "variable"},
		{SuspensionData{Reason: SuspendErroneousState, Error: "boom"}, "error"},
	}
	for _, tt := range tests {
		stack, kw := suiteTestKeyword(&fakeContext{})
		kw.Mark(MarkerStepping)
		kw.Mark(MarkerError)
		c := NewUserProcessDebugController(stack, prefs(false, false))
		l := &recordingPauseListener{}
		c.WhenSuspended(l)
		data := tt.data
		c.setSuspension(&data)

		future := c.ExecutionPaused()

		if len(l.reasons) != 1 || l.reasons[0] != tt.reason {
			t.Errorf("reasons = %v, want [%s]", l.reasons, tt.reason)
		}
		if _, ok := c.SuspensionData(); ok {
			t.Errorf("%s: suspension not cleared", tt.reason)
		}
		if kw.IsMarkedStepping() || !kw.IsMarkedError() {
			t.Errorf("%s: only stepping markers should be cleared", tt.reason)
		}
		r, err := future.Wait(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := r.(agent.Continue); !ok {
			t.Errorf("non-interactive pause resolved with %T", r)
		}
	}
}

func TestController_InteractivePauseWaitsForUser(t *testing.T) {
	c := NewUserProcessDebugController(NewStacktrace(), prefs(false, false), Interactive())
	future := c.ExecutionPaused()
	select {
	case <-future.Done():
		t.Fatal("future resolved without user")
	default:
	}

	sent := &counter{}
	go c.Resume(sent.run)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := future.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(agent.Resume); !ok {
		t.Errorf("got %T, want Resume", r)
	}
	if sent.n != 1 {
		t.Errorf("callback ran %d times", sent.n)
	}
	if c.PendingResponses() != 0 {
		t.Error("response also queued")
	}
}

func TestController_FutureTakesQueuedResponse(t *testing.T) {
	c := NewUserProcessDebugController(NewStacktrace(), prefs(false, false), Interactive())
	cb := &counter{}
	c.Terminate(cb.run)

	f := c.TakeFutureResponse()
	r, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(agent.Terminate); !ok || cb.n != 1 || c.PendingResponses() != 0 {
		t.Errorf("got %T, callback %d, pending %d", r, cb.n, c.PendingResponses())
	}
}

// startStepping issues a step and consumes the Resume it queues.
func startStepping(t *testing.T, c *UserProcessDebugController, step func(whenSent, whenSteppingEnds func())) (sent, ended *counter) {
	t.Helper()
	sent, ended = &counter{}, &counter{}
	step(sent.run, ended.run)
	r, ok := c.TakeCurrentResponse(agent.PreStartKeyword)
	if _, isResume := r.(agent.Resume); !ok || !isResume {
		t.Fatalf("got %v, want Resume", r)
	}
	if sent.n != 1 || ended.n != 0 {
		t.Fatalf("callbacks: sent %d, ended %d", sent.n, ended.n)
	}
	return sent, ended
}

func TestController_StepIntoWithLibraries(t *testing.T) {
	stack, _ := suiteTestKeyword(libContext())
	c := NewUserProcessDebugController(stack, prefs(false, true))
	_, ended := startStepping(t, c, c.StepInto)

	if !c.IsStepping() {
		t.Fatal("not stepping")
	}
	if _, ok := c.TakeCurrentResponse(agent.EndKeyword); ok {
		t.Error("paused at END_KEYWORD")
	}
	r, ok := c.TakeCurrentResponse(agent.PreEndKeyword)
	if !ok || !isPause(r) {
		t.Fatalf("got %v, want Pause", r)
	}
	if ended.n != 1 {
		t.Errorf("whenSteppingEnds ran %d times", ended.n)
	}
}

func TestController_StepIntoSkipsLibraries(t *testing.T) {
	stack, _ := suiteTestKeyword(libContext())
	c := NewUserProcessDebugController(stack, prefs(false, false))
	startStepping(t, c, c.StepInto)

	if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); ok {
		t.Error("paused inside library keyword")
	}
	stack.Pop()
	stack.Push(NewStackFrame("user", CategoryKeyword, 2, &fakeContext{}))
	if _, ok := c.TakeCurrentResponse(agent.StartKeyword); !ok {
		t.Error("did not pause in user keyword")
	}
}

func TestController_StepIntoNeverPausesOnLoop(t *testing.T) {
	stack, _ := suiteTestKeyword(&fakeContext{})
	stack.Push(NewStackFrame(":FOR", CategoryFor, 2, &fakeContext{}))
	c := NewUserProcessDebugController(stack, prefs(false, true))
	startStepping(t, c, c.StepInto)

	for _, p := range allPoints {
		if _, ok := c.TakeCurrentResponse(p); ok {
			t.Errorf("%v: paused on loop frame", p)
		}
	}
}

func TestController_StepOverSkipsNestedKeywords(t *testing.T) {
	test := NewStackFrame("Test", CategoryTest, 1, &fakeContext{})
	stack := stackOf(NewStackFrame("Suite", CategorySuite, 0, &fakeContext{}), test)
	c := NewUserProcessDebugController(stack, prefs(false, true))
	c.setLastPausingPoint(agent.PreStartKeyword)
	startStepping(t, c, func(sent, ended func()) { c.StepOver(test, sent, ended) })

	if !test.IsMarkedStepping() {
		t.Fatal("stepped frame not marked")
	}
	stack.Push(NewStackFrame("keyword", CategoryKeyword, 2, &fakeContext{}))
	if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); ok {
		t.Error("paused inside stepped-over keyword")
	}
	if _, ok := c.TakeCurrentResponse(agent.PreEndKeyword); ok {
		t.Error("paused at PRE_END_KEYWORD")
	}
	stack.Pop()
	if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); !ok {
		t.Error("did not pause at next keyword")
	}
}

func TestController_StepOverAtStartMarksParent(t *testing.T) {
	stack, kw := suiteTestKeyword(&fakeContext{})
	test := stack.Frames()[1]
	c := NewUserProcessDebugController(stack, prefs(false, true))
	c.setLastPausingPoint(agent.StartKeyword)
	c.StepOver(kw, nil, nil)

	if kw.IsMarkedStepping() || !test.IsMarkedStepping() {
		t.Errorf("marked: keyword %v, parent %v", kw.IsMarkedStepping(), test.IsMarkedStepping())
	}
}

func TestController_StepOverPausesOnIteration(t *testing.T) {
	stack, kw := suiteTestKeyword(&fakeContext{})
	stack.Push(NewStackFrame(":FOR", CategoryFor, 2, &fakeContext{}))
	c := NewUserProcessDebugController(stack, prefs(false, true))
	c.setLastPausingPoint(agent.PreStartKeyword)
	startStepping(t, c, func(sent, ended func()) { c.StepOver(kw, sent, ended) })

	if _, ok := c.TakeCurrentResponse(agent.PreStartKeyword); ok {
		t.Error("paused on loop frame")
	}
	stack.Push(NewStackFrame(":FOR 1", CategoryForItem, 2, &fakeContext{}))
	if _, ok := c.TakeCurrentResponse(agent.StartKeyword); ok {
		t.Error("paused on iteration whose parent is not marked")
	}
}

func TestController_StepReturn(t *testing.T) {
	stack, kw := suiteTestKeyword(&fakeContext{})
	c := NewUserProcessDebugController(stack, prefs(false, true))
	_, ended := startStepping(t, c, func(sent, ended func()) { c.StepReturn(kw, sent, ended) })

	if _, ok := c.TakeCurrentResponse(agent.PreEndKeyword); ok {
		t.Error("paused before the frame returned")
	}
	stack.Pop()
	if _, ok := c.TakeCurrentResponse(agent.EndKeyword); ok {
		t.Error("paused at END_KEYWORD")
	}
	if _, ok := c.TakeCurrentResponse(agent.PreEndKeyword); !ok {
		t.Error("did not pause after return")
	}
	if ended.n != 1 {
		t.Errorf("whenSteppingEnds ran %d times", ended.n)
	}
}

func TestController_ChangeVariable(t *testing.T) {
	stack, kw := suiteTestKeyword(&fakeContext{})
	c := NewUserProcessDebugController(stack, prefs(false, false))
	v := StackFrameVariable{Name: "${x}", Scope: agent.ScopeLocal, Type: "str", Value: "old"}
	c.ChangeVariable(kw, v, []string{"new"})

	d, _ := c.SuspensionData()
	if d.Reason != SuspendVariableChange || d.FrameLevel != 2 {
		t.Errorf("suspension = %+v", d)
	}
	r, ok := c.TakeCurrentResponse(agent.PreStartKeyword)
	cv, isChange := r.(agent.ChangeVariable)
	if !ok || !isChange {
		t.Fatalf("got %v, want ChangeVariable", r)
	}
	if cv.Variable != "${x}" || cv.Scope != agent.ScopeLocal || cv.Level != 2 || len(cv.Values) != 1 || cv.Values[0] != "new" {
		t.Errorf("response = %+v", cv)
	}
}
