package contexts

import (
	"fmt"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// steps is a sequence of executables of one owner.
type steps struct {
	models   []*model.File
	owner    owner
	list     []model.Step
	uri      string
	template string
}

// name returns the keyword the step calls. A test template replaces it.
func (s steps) name(step model.Step) string {
	if s.template != "" {
		return s.template
	}
	return step.Keyword
}

// match moves to the executable at index, which kw is expected to run.
func (s steps) match(index, currentLine int, kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	if kw.CallType == debug.For {
		return s.matchLoop(index, currentLine, kw, bp)
	}
	if index >= len(s.list) {
		return newExecutableCallContext(s, len(s.list), currentLine, unableToFind("executable", kw), bp)
	}
	step := s.list[index]
	line := lineOf(step.LineNumber())
	switch {
	case step.IsLoop():
		return newExecutableCallContext(s, index, line, unableToFind("executable", kw)+":FOR loop was found instead\n", bp)
	case !keywordMatches(s.name(step), kw):
		msg := fmt.Sprintf("An executable was found but seem to call non-matching keyword '%s'\n", s.name(step))
		return newExecutableCallContext(s, index, line, unableToFind("executable", kw)+msg, bp)
	}
	return newExecutableCallContext(s, index, line, "", bp)
}

func (s steps) matchLoop(index, currentLine int, kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	if index >= len(s.list) {
		pos := newExecutableCallContext(s, len(s.list), currentLine, unableToFind("executable", kw), bp)
		return &ForLoopContext{ExecutableCallContext: pos}
	}
	step := s.list[index]
	line := lineOf(step.LineNumber())
	switch {
	case !step.IsLoop():
		msg := fmt.Sprintf("Unable to find :FOR loop\nAn executable was found calling '%s' keyword\n", s.name(step))
		return &ForLoopContext{ExecutableCallContext: newExecutableCallContext(s, index, line, msg, bp)}
	case !loopMatches(step.For, kw.Name):
		msg := fmt.Sprintf("Unable to find matching :FOR loop\n':FOR %s' was found but ':FOR %s' is being executed\n", step.For.Description(), kw.Name)
		return &ForLoopContext{ExecutableCallContext: newExecutableCallContext(s, index, line, msg, bp)}
	}
	return &ForLoopContext{ExecutableCallContext: newExecutableCallContext(s, index, line, "", bp), loop: step.For}
}

// ExecutableCallContext is the context of a frame positioned on one
// executable of a test case, user keyword or loop body.
type ExecutableCallContext struct {
	located
	steps steps
	index int
	bp    debug.BreakpointSupplier
}

var _ debug.ExecutablesContext = (*ExecutableCallContext)(nil)

// NewExecutableCallContext creates a context positioned on executables[index].
func NewExecutableCallContext(models []*model.File, executables []model.Step, index int, uri string, line int, errMsg string, bp debug.BreakpointSupplier) *ExecutableCallContext {
	s := steps{models: models, owner: unknownOwner, list: executables, uri: uri}
	return newExecutableCallContext(s, index, line, errMsg, bp)
}

func newExecutableCallContext(s steps, index, line int, errMsg string, bp debug.BreakpointSupplier) *ExecutableCallContext {
	return &ExecutableCallContext{
		located: located{uri: s.uri, line: line, err: errMsg},
		steps:   s,
		index:   index,
		bp:      bp,
	}
}

func (c *ExecutableCallContext) LineBreakpoint() (debug.LineBreakpoint, bool) {
	return breakpointAt(c.bp, c.uri, c.line)
}

// IsOnLastExecutable reports whether no executable follows the current one.
func (c *ExecutableCallContext) IsOnLastExecutable() bool {
	return c.index == len(c.steps.list)-1
}

func (c *ExecutableCallContext) RemainingExecutables() int {
	return max(len(c.steps.list)-c.index-1, 0)
}

func (c *ExecutableCallContext) PreviousContext() debug.StackFrameContext { return c }

func (c *ExecutableCallContext) MoveTo(kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	switch kw.CallType {
	case debug.NormalCall, debug.For:
		return c.steps.match(c.index+1, c.line, kw, bp)
	case debug.Setup:
		debug.IllegalState("Setup keyword cannot be called when already executing keywords inside test case or other keyword")
	case debug.Teardown:
		return c.teardown().enter(kw, c, bp)
	case debug.ForIteration:
		return FindContextForLoopIteration(c, kw.Name)
	}
	return c
}

func (c *ExecutableCallContext) teardown() settingResolution {
	if c.steps.owner.kind == "Keyword" {
		return settingResolution{label: "Keyword Teardown", setting: c.steps.owner.teardown, uri: c.uri}
	}
	return resolveTestSetting("Test Teardown", c.steps.owner.teardown, c.uri, c.steps.models, testTeardown)
}

// ForLoopContext is the context of a frame positioned on a FOR loop. It
// moves into iterations, and past the loop like any executable.
type ForLoopContext struct {
	*ExecutableCallContext
	loop *model.ForLoop // nil when no matching loop was found
}

// NewForLoopContext creates a context positioned on loop.
func NewForLoopContext(loop *model.ForLoop, uri string, line int, errMsg string) *ForLoopContext {
	s := steps{owner: unknownOwner, uri: uri}
	if loop != nil {
		s.list = []model.Step{{For: loop, Line: line}}
	}
	return &ForLoopContext{ExecutableCallContext: newExecutableCallContext(s, 0, line, errMsg, nil), loop: loop}
}

// Loop returns the loop the context is positioned on.
func (c *ForLoopContext) Loop() (*model.ForLoop, bool) { return c.loop, c.loop != nil }

func (c *ForLoopContext) PreviousContext() debug.StackFrameContext { return c }

func (c *ForLoopContext) MoveTo(kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	if kw.CallType == debug.ForIteration {
		return FindContextForLoopIteration(c, kw.Name)
	}
	return c.ExecutableCallContext.MoveTo(kw, bp)
}
