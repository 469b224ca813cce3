package contexts

import "github.com/nokia/red-debugger/pkg/debug"

// SetupTeardownContext is the context of a frame while one of its setup or
// teardown keywords runs. The keyword itself gets its own frame, so moves
// here change nothing.
type SetupTeardownContext struct {
	located
	previous debug.StackFrameContext
	bp       debug.BreakpointSupplier
}

// NewSetupTeardownContext creates a setup or teardown context returning to
// previous once the keyword ends.
func NewSetupTeardownContext(uri string, line int, errMsg string, previous debug.StackFrameContext, bp debug.BreakpointSupplier) *SetupTeardownContext {
	return &SetupTeardownContext{
		located:  located{uri: uri, line: line, err: errMsg},
		previous: previous,
		bp:       bp,
	}
}

func (c *SetupTeardownContext) LineBreakpoint() (debug.LineBreakpoint, bool) {
	return breakpointAt(c.bp, c.uri, c.line)
}

func (c *SetupTeardownContext) MoveTo(debug.RunningKeyword, debug.BreakpointSupplier) debug.StackFrameContext {
	return c
}

func (c *SetupTeardownContext) PreviousContext() debug.StackFrameContext { return c.previous }

// LibraryKeywordContext is the context of a keyword implemented by a
// library. Nothing inside it is modeled.
type LibraryKeywordContext struct{}

func (LibraryKeywordContext) AssociatedPath() (string, bool) { return "", false }

func (LibraryKeywordContext) FileRegion() (debug.FileRegion, bool) { return debug.FileRegion{}, false }

func (LibraryKeywordContext) IsErroneous() bool { return false }

func (LibraryKeywordContext) ErrorMessage() (string, bool) { return "", false }

func (LibraryKeywordContext) LineBreakpoint() (debug.LineBreakpoint, bool) { return nil, false }

func (LibraryKeywordContext) IsLibraryKeywordContext() bool { return true }

func (c LibraryKeywordContext) MoveTo(debug.RunningKeyword, debug.BreakpointSupplier) debug.StackFrameContext {
	return c
}

func (c LibraryKeywordContext) PreviousContext() debug.StackFrameContext { return c }
