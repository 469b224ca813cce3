package debug

import (
	"fmt"
	"log/slog"

	"github.com/nokia/red-debugger/pkg/agent"
)

// StacktraceBuilder keeps a Stacktrace in line with the events reported by
// the agent. It processes events strictly in order on a single goroutine.
type StacktraceBuilder struct {
	agent.BaseListener

	stack       *Stacktrace
	locator     ElementsLocator
	breakpoints BreakpointSupplier
	fixer       TypesFixer
	logger      *slog.Logger

	// resources imported for a suite frame not pushed yet
	pendingResources []string
}

// BuilderOption configures a StacktraceBuilder.
type BuilderOption func(*StacktraceBuilder)

// WithBuilderLogger sets the builder's logger.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(b *StacktraceBuilder) { b.logger = l }
}

// NewStacktraceBuilder creates a builder mutating stack. A nil locator
// defaults to NoModels and nil breakpoints to NoBreakpoints.
func NewStacktraceBuilder(stack *Stacktrace, locator ElementsLocator, bp BreakpointSupplier, opts ...BuilderOption) *StacktraceBuilder {
	if locator == nil {
		locator = NoModels
	}
	if bp == nil {
		bp = NoBreakpoints
	}
	b := &StacktraceBuilder{
		stack:       stack,
		locator:     locator,
		breakpoints: bp,
		fixer:       NewTypesFixer(""),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ agent.EventsListener = (*StacktraceBuilder)(nil)

// guard turns an *IllegalStateError raised by the stack model into an error.
func (b *StacktraceBuilder) guard(event string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ise, ok := r.(*IllegalStateError)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("handle %s: %w", event, ise)
		}
	}()
	return fn()
}

func (b *StacktraceBuilder) top(event string) *StackFrame {
	top, ok := b.stack.Peek()
	if !ok {
		IllegalState("%s reported on empty stack", event)
	}
	return top
}

func (b *StacktraceBuilder) HandleVersions(ev agent.VersionsEvent) error {
	b.fixer = NewTypesFixer(ev.RobotVersion)
	b.logger.Debug("runtime versions", "robot", ev.RobotVersion, "python", ev.PythonVersion, "protocol", ev.ProtocolVersion)
	return nil
}

func (b *StacktraceBuilder) HandleResourceImport(ev agent.ResourceImportEvent) error {
	return b.guard("resource import", func() error {
		suite, ok := b.suiteFrameFor(ev.Importer)
		if !ok {
			b.pendingResources = append(b.pendingResources, ev.Path)
			return nil
		}
		suite.AddLoadedResource(ev.Path)
		return nil
	})
}

// suiteFrameFor returns the suite frame whose path is importer. Without an
// importer the resource was loaded dynamically and belongs to the nearest
// suite frame. An importer not on the stack is a suite about to start.
func (b *StacktraceBuilder) suiteFrameFor(importer string) (*StackFrame, bool) {
	if importer == "" {
		return b.stack.FirstFrameSatisfying(func(f *StackFrame) bool { return f.HasCategory(CategorySuite) })
	}
	return b.stack.FirstFrameSatisfying(func(f *StackFrame) bool {
		p, ok := f.ContextPath()
		return f.HasCategory(CategorySuite) && ok && p == importer
	})
}

func (b *StacktraceBuilder) HandleSuiteStarted(ev agent.SuiteStartedEvent) error {
	return b.guard("suite started", func() error {
		currentPath, _ := b.stack.CurrentPath()
		ctx := b.locator.FindContextForSuite(ev.Name, ev.Path, ev.IsDirectory, currentPath)
		suitePath := ev.Path
		frame := NewStackFrame(ev.Name, CategorySuite, b.stack.Size(), ctx,
			WithPathSupplier(func() (string, bool) { return suitePath, suitePath != "" }))
		for _, res := range b.pendingResources {
			frame.AddLoadedResource(res)
		}
		b.pendingResources = nil
		b.push(frame)
		return nil
	})
}

func (b *StacktraceBuilder) HandleSuiteEnded(agent.SuiteEndedEvent) error {
	b.pop()
	return nil
}

func (b *StacktraceBuilder) HandleTestStarted(ev agent.TestStartedEvent) error {
	return b.guard("test started", func() error {
		currentPath, _ := b.stack.CurrentPath()
		ctx := b.locator.FindContextForTestCase(ev.Name, currentPath, ev.Template)
		var opts []FrameOption
		if parent, ok := b.stack.Peek(); ok {
			opts = append(opts, WithPathSupplier(parent.ContextPath))
		}
		b.push(NewStackFrame(ev.Name, CategoryTest, b.stack.Size(), ctx, opts...))
		return nil
	})
}

func (b *StacktraceBuilder) HandleTestEnded(agent.TestEndedEvent) error {
	b.pop()
	return nil
}

func (b *StacktraceBuilder) HandleKeywordAboutToStart(ev agent.KeywordStartedEvent) error {
	return b.guard("keyword about to start", func() error {
		declared, err := ParseKeywordCallType(ev.KeywordType)
		if err != nil {
			return err
		}
		top := b.top("keyword start")
		isLast := func() bool {
			ec, ok := top.Context().(ExecutablesContext)
			return ok && ec.RemainingExecutables() == 1
		}
		fixed := b.fixer.KeywordStarting(declared, isLast)
		top.MoveToKeyword(RunningKeyword{Source: ev.LibraryName, Name: ev.Name, CallType: fixed}, b.breakpoints)
		return nil
	})
}

func (b *StacktraceBuilder) HandleKeywordStarted(ev agent.KeywordStartedEvent) error {
	return b.guard("keyword started", func() error {
		callType := b.fixer.KeywordStarted()
		top := b.top("keyword start")
		parentVars := top.Variables()

		switch callType {
		case For:
			b.push(NewStackFrame(ev.Name, CategoryFor, top.Level(), top.Context(), inheritVariables(parentVars, true)...))
		case ForIteration:
			b.push(NewStackFrame(ev.Name, CategoryForItem, top.Level(), top.Context(), inheritVariables(parentVars, true)...))
		default:
			kw := RunningKeyword{Source: ev.LibraryName, Name: ev.Name, CallType: callType}
			currentPath, _ := b.stack.CurrentPath()
			ctx := b.locator.FindContextForKeyword(ev.LibraryName, ev.Name, currentPath, b.loadedResources())
			level := top.Level() + 1
			if ctx.IsLibraryKeywordContext() {
				level = top.Level()
			}
			b.push(NewStackFrame(kw.QualifiedName(), CategoryKeyword, level, ctx,
				inheritVariables(parentVars, ctx.IsLibraryKeywordContext())...))
		}
		return nil
	})
}

func inheritVariables(parent *StackFrameVariables, preserveLocals bool) []FrameOption {
	if parent == nil {
		return nil
	}
	return []FrameOption{WithVariables(NewLocalVariables(parent, preserveLocals))}
}

// loadedResources collects the resources of all suite frames, innermost first.
func (b *StacktraceBuilder) loadedResources() []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range b.stack.Frames() {
		for _, r := range f.LoadedResources() {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

func (b *StacktraceBuilder) HandleKeywordAboutToEnd(agent.KeywordEndedEvent) error {
	b.pop()
	return nil
}

func (b *StacktraceBuilder) HandleKeywordEnded(agent.KeywordEndedEvent) error {
	return b.guard("keyword ended", func() error {
		b.fixer.KeywordEnded()
		b.top("keyword end").MoveOutOfKeyword()
		return nil
	})
}

func (b *StacktraceBuilder) HandleVariables(ev agent.VariablesEvent) error {
	if ev.Error != "" {
		b.logger.Warn("variables reported with error", "error", ev.Error)
	}
	b.stack.UpdateVariables(ev.Variables)
	return nil
}

func (b *StacktraceBuilder) HandleClosed() error {
	b.stack.Destroy()
	b.pendingResources = nil
	return nil
}

func (b *StacktraceBuilder) push(f *StackFrame) {
	b.stack.Push(f)
	b.logger.Debug("frame pushed", "frame", f.Name(), "category", f.Category().String(), "level", f.Level())
}

func (b *StacktraceBuilder) pop() {
	if f, ok := b.stack.Pop(); ok {
		b.logger.Debug("frame popped", "frame", f.Name(), "category", f.Category().String())
	}
}
