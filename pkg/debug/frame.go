package debug

import (
	"fmt"
	"slices"

	"github.com/nokia/red-debugger/pkg/agent"
)

// FrameCategory is the kind of execution unit a frame represents.
type FrameCategory int

const (
	CategorySuite FrameCategory = iota
	CategoryTest
	CategoryKeyword
	CategoryFor
	CategoryForItem
)

func (c FrameCategory) String() string {
	switch c {
	case CategorySuite:
		return "SUITE"
	case CategoryTest:
		return "TEST"
	case CategoryKeyword:
		return "KEYWORD"
	case CategoryFor:
		return "FOR"
	case CategoryForItem:
		return "FOR_ITEM"
	}
	return fmt.Sprintf("FrameCategory(%d)", int(c))
}

// FrameMarker flags a frame for the controller.
type FrameMarker uint8

const (
	MarkerError FrameMarker = 1 << iota
	MarkerStepping
)

// StackFrame is one entry of the call stack.
type StackFrame struct {
	name     string
	category FrameCategory
	level    int
	context  StackFrameContext
	markers  FrameMarker

	initialError    string
	loadedResources []string
	pathSupplier    func() (string, bool)

	variables *StackFrameVariables
	lastDelta *VariablesDelta
}

// FrameOption configures a new frame.
type FrameOption func(*StackFrame)

// WithPathSupplier sets the function giving the frame's path when its
// context has none.
func WithPathSupplier(f func() (string, bool)) FrameOption {
	return func(sf *StackFrame) { sf.pathSupplier = f }
}

// WithVariables sets the initial variable snapshot.
func WithVariables(v *StackFrameVariables) FrameOption {
	return func(sf *StackFrame) { sf.variables = v }
}

// NewStackFrame creates a frame. The context's error message at this point
// becomes the prefix of every later message.
func NewStackFrame(name string, category FrameCategory, level int, ctx StackFrameContext, opts ...FrameOption) *StackFrame {
	f := &StackFrame{name: name, category: category, level: level, context: ctx}
	if msg, ok := ctx.ErrorMessage(); ok {
		f.initialError = msg
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *StackFrame) Name() string { return f.name }
func (f *StackFrame) Category() FrameCategory { return f.category }
func (f *StackFrame) HasCategory(c FrameCategory) bool { return f.category == c }
func (f *StackFrame) Level() int { return f.level }
func (f *StackFrame) Context() StackFrameContext { return f.context }
func (f *StackFrame) Variables() *StackFrameVariables { return f.variables }
func (f *StackFrame) IsMarked(m FrameMarker) bool { return f.markers&m != 0 }
func (f *StackFrame) IsMarkedError() bool { return f.IsMarked(MarkerError) }
func (f *StackFrame) IsMarkedStepping() bool { return f.IsMarked(MarkerStepping) }

// Mark sets a marker. Marking twice has no further effect.
func (f *StackFrame) Mark(m FrameMarker) { f.markers |= m }

// Unmark clears a marker.
func (f *StackFrame) Unmark(m FrameMarker) { f.markers &^= m }

// LastDelta returns the changes of the latest variables update, if any.
func (f *StackFrame) LastDelta() (VariablesDelta, bool) {
	if f.lastDelta == nil {
		return VariablesDelta{}, false
	}
	return *f.lastDelta, true
}

// AddLoadedResource records a resource imported while the suite runs. Only
// suite frames hold resources.
func (f *StackFrame) AddLoadedResource(uri string) {
	if f.category != CategorySuite {
		IllegalState("Cannot store resource in non-suite frame")
	}
	if !slices.Contains(f.loadedResources, uri) {
		f.loadedResources = append(f.loadedResources, uri)
	}
}

// LoadedResources returns a copy of the frame's resources.
func (f *StackFrame) LoadedResources() []string {
	return slices.Clone(f.loadedResources)
}

// MoveToKeyword replaces the context with the one entered by kw.
func (f *StackFrame) MoveToKeyword(kw RunningKeyword, bp BreakpointSupplier) {
	f.context = f.context.MoveTo(kw, bp)
}

// MoveOutOfKeyword restores the context saved when a keyword was entered.
func (f *StackFrame) MoveOutOfKeyword() {
	f.context = f.context.PreviousContext()
}

// IsLibraryKeywordFrame reports whether the frame runs a library keyword.
func (f *StackFrame) IsLibraryKeywordFrame() bool {
	return f.category == CategoryKeyword && f.context.IsLibraryKeywordContext()
}

func (f *StackFrame) IsTestContext() bool { return f.category == CategoryTest }

// IsSuiteDirectoryContext reports whether the frame runs a directory suite.
func (f *StackFrame) IsSuiteDirectoryContext() bool {
	sc, ok := f.suiteContext()
	return ok && sc.IsDirectory()
}

// IsSuiteFileContext reports whether the frame runs a file suite.
func (f *StackFrame) IsSuiteFileContext() bool {
	sc, ok := f.suiteContext()
	return ok && !sc.IsDirectory()
}

// suiteContext looks at the current context and, while a suite setup or
// teardown runs, at the suite context it came from.
func (f *StackFrame) suiteContext() (SuiteContext, bool) {
	if f.category != CategorySuite {
		return nil, false
	}
	if sc, ok := f.context.(SuiteContext); ok {
		return sc, true
	}
	sc, ok := f.context.PreviousContext().(SuiteContext)
	return sc, ok
}

// IsErroneous reports whether the current context is erroneous.
func (f *StackFrame) IsErroneous() bool { return f.context.IsErroneous() }

// ErrorMessage returns the error of the frame's context. The message the
// frame started with is kept, and text reported later is appended to it.
func (f *StackFrame) ErrorMessage() (string, bool) {
	current, _ := f.context.ErrorMessage()
	switch {
	case current != "" && current != f.initialError:
		return f.initialError + current, true
	case f.initialError != "":
		return f.initialError, true
	}
	return "", false
}

// Breakpoint returns the breakpoint at the current context's location.
func (f *StackFrame) Breakpoint() (LineBreakpoint, bool) {
	return f.context.LineBreakpoint()
}

// FileRegion returns the source region of the current context.
func (f *StackFrame) FileRegion() (FileRegion, bool) {
	return f.context.FileRegion()
}

// ContextPath returns the path of the current context, or the supplied path
// when the context has none.
func (f *StackFrame) ContextPath() (string, bool) {
	if p, ok := f.context.AssociatedPath(); ok {
		return p, true
	}
	if f.pathSupplier != nil {
		return f.pathSupplier()
	}
	return "", false
}

// CurrentSourcePath returns the path of the current context only.
func (f *StackFrame) CurrentSourcePath() (string, bool) {
	return f.context.AssociatedPath()
}

func (f *StackFrame) setVariables(layer agent.ScopeMap) {
	if f.variables == nil {
		f.variables = NewNonLocalVariables(layer)
		f.lastDelta = nil
		return
	}
	d := f.variables.Update(layer)
	f.lastDelta = &d
}

func (f *StackFrame) String() string {
	return fmt.Sprintf("%s [%s, level %d]", f.name, f.category, f.level)
}
