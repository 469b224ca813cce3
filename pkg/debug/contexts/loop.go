package contexts

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// ForLoopIterationContext is the context of one iteration of a FOR loop.
type ForLoopIterationContext struct {
	located
	loop     *model.ForLoop
	body     steps
	previous debug.StackFrameContext
}

// iterationVariable matches "${x} = " in iteration names like
// "${x} = 1, ${y} = 2".
var iterationVariable = regexp.MustCompile(`([$@&%]\{[^}]*\})\s*=`)

// FindContextForLoopIteration returns the context of the iteration named
// name of the loop current is positioned on. It panics with
// *debug.IllegalStateError when current is not a loop context.
func FindContextForLoopIteration(current debug.StackFrameContext, name string) debug.StackFrameContext {
	loopCtx, ok := current.(*ForLoopContext)
	if !ok {
		debug.IllegalState("For loop iteration can only be called when already context was moved to for-loop context")
	}
	it := &ForLoopIterationContext{
		located:  located{uri: loopCtx.uri, line: loopCtx.line},
		previous: loopCtx,
	}
	if loopCtx.IsErroneous() || loopCtx.loop == nil {
		it.err = fmt.Sprintf("No loop found for iteration of '%s'\n", name)
		return it
	}

	it.loop = loopCtx.loop
	it.body = loopCtx.steps
	it.body.list = loopCtx.loop.Body

	var used []string
	for _, m := range iterationVariable.FindAllStringSubmatch(name, -1) {
		used = append(used, m[1])
	}
	if !slices.Equal(used, it.loop.Variables) {
		it.err = fmt.Sprintf("The loop is iterating with [%s] variables but [%s] were expected\n",
			strings.Join(used, ", "), strings.Join(it.loop.Variables, ", "))
	}
	return it
}

func (c *ForLoopIterationContext) LineBreakpoint() (debug.LineBreakpoint, bool) { return nil, false }

func (c *ForLoopIterationContext) PreviousContext() debug.StackFrameContext { return c.previous }

func (c *ForLoopIterationContext) MoveTo(kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	if kw.CallType != debug.NormalCall {
		debug.IllegalState("Only normal keyword can be called when executing loop")
	}
	if c.loop == nil {
		return c
	}
	return c.body.match(0, c.line, kw, bp)
}
