package debug

import "fmt"

// FilePosition is a position inside a source file. Unknown parts are -1.
type FilePosition struct {
	Line   int
	Column int
	Offset int
}

// UnknownPosition is a position with nothing known.
func UnknownPosition() FilePosition {
	return FilePosition{Line: -1, Column: -1, Offset: -1}
}

// FileRegion is a region of a source file.
type FileRegion struct {
	Start FilePosition
	End   FilePosition
}

// LineRegion returns the region of a whole line.
func LineRegion(line int) FileRegion {
	p := FilePosition{Line: line, Column: -1, Offset: -1}
	return FileRegion{Start: p, End: p}
}

// LineBreakpoint is a breakpoint placed on a line of a suite or resource file.
type LineBreakpoint interface {
	// EvaluateHitCount registers a hit and reports whether the breakpoint fires.
	EvaluateHitCount() bool
	IsConditionEnabled() bool
	// Condition is the keyword call evaluated remotely, with parts
	// separated by two or more spaces or a tab.
	Condition() string
}

// BreakpointSupplier looks up the breakpoint at a source location.
type BreakpointSupplier interface {
	BreakpointAt(uri string, line int) (LineBreakpoint, bool)
}

// BreakpointSupplierFunc adapts a function to BreakpointSupplier.
type BreakpointSupplierFunc func(uri string, line int) (LineBreakpoint, bool)

func (f BreakpointSupplierFunc) BreakpointAt(uri string, line int) (LineBreakpoint, bool) {
	return f(uri, line)
}

// NoBreakpoints is a supplier without any breakpoint.
var NoBreakpoints BreakpointSupplier = BreakpointSupplierFunc(func(string, int) (LineBreakpoint, bool) {
	return nil, false
})

// StackFrameContext is the execution context of one frame. Contexts are
// values: MoveTo returns a new context instead of changing the receiver.
type StackFrameContext interface {
	AssociatedPath() (string, bool)
	FileRegion() (FileRegion, bool)
	IsErroneous() bool
	// ErrorMessage describes why the context could not be matched with
	// the model. Successive contexts may append further text.
	ErrorMessage() (string, bool)
	LineBreakpoint() (LineBreakpoint, bool)
	IsLibraryKeywordContext() bool
	// MoveTo returns the context entered by the given call. It panics
	// with *IllegalStateError when the call cannot happen here.
	MoveTo(kw RunningKeyword, bp BreakpointSupplier) StackFrameContext
	// PreviousContext returns the context restored when the call ends.
	PreviousContext() StackFrameContext
}

// SuiteContext is implemented by contexts of suite frames.
type SuiteContext interface {
	StackFrameContext
	IsDirectory() bool
}

// ExecutablesContext is implemented by contexts walking a sequence of
// executables.
type ExecutablesContext interface {
	StackFrameContext
	// RemainingExecutables is the number of executables after the current one.
	RemainingExecutables() int
}

// ElementsLocator resolves the contexts of suites, tests and keywords.
type ElementsLocator interface {
	FindContextForSuite(name, path string, isDirectory bool, currentPath string) StackFrameContext
	FindContextForTestCase(name, currentPath, template string) StackFrameContext
	FindContextForKeyword(library, keyword, currentPath string, loadedResources []string) StackFrameContext
}

// IllegalStateError reports a call sequence that violates the stack model.
// It is raised with panic and recovered by the StacktraceBuilder.
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return "illegal state: " + e.Message
}

// IllegalState panics with an *IllegalStateError.
func IllegalState(format string, args ...any) {
	panic(&IllegalStateError{Message: fmt.Sprintf(format, args...)})
}
