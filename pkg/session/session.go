// Package session wires the stack model and the debug controller to one
// agent connection.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nokia/red-debugger/pkg/agent"
	"github.com/nokia/red-debugger/pkg/debug"
)

// Options configure a Session.
type Options struct {
	Locator     debug.ElementsLocator
	Breakpoints debug.BreakpointSupplier
	Preferences debug.DebuggerPreferences
	// Interactive sessions wait for a user decision at every pause.
	Interactive bool
	Logger      *slog.Logger
	// OnPause is called on the events goroutine for every pause.
	OnPause func(Pause)
}

// Session handles the events of one agent connection. Stack events go to the
// embedded builder; pausing points and pauses go to the debug controller.
type Session struct {
	*debug.StacktraceBuilder

	ID         string
	stack      *debug.Stacktrace
	controller *debug.UserProcessDebugController
	responder  agent.Responder
	logger     *slog.Logger
	onPause    func(Pause)

	ctx    context.Context
	closed atomic.Bool

	// stackMu is held while events change the stack and while Inspect runs.
	stackMu sync.Mutex

	mu      sync.Mutex
	pending *Pause
	pauses  []Pause
}

var (
	_ agent.EventsListener      = (*Session)(nil)
	_ debug.PauseReasonListener = (*Session)(nil)
)

// New creates a session answering the agent through responder.
func New(responder agent.Responder, opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	prefs := opts.Preferences
	if prefs == nil {
		prefs = debug.Preferences{}
	}
	ctrlOpts := []debug.ControllerOption{debug.WithControllerLogger(logger)}
	if opts.Interactive {
		ctrlOpts = append(ctrlOpts, debug.Interactive())
	}

	stack := debug.NewStacktrace()
	s := &Session{
		StacktraceBuilder: debug.NewStacktraceBuilder(stack, opts.Locator, opts.Breakpoints, debug.WithBuilderLogger(logger)),
		ID:                id,
		stack:             stack,
		controller:        debug.NewUserProcessDebugController(stack, prefs, ctrlOpts...),
		responder:         responder,
		logger:            logger,
		onPause:           opts.OnPause,
		ctx:               context.Background(),
	}
	s.controller.WhenSuspended(s)
	return s
}

// Stack returns the stack of the session. Other goroutines than the one
// running the session read it through Inspect.
func (s *Session) Stack() *debug.Stacktrace { return s.stack }

// Inspect runs fn with the stack while no event is being handled.
func (s *Session) Inspect(fn func(stack *debug.Stacktrace)) {
	s.stackMu.Lock()
	defer s.stackMu.Unlock()
	fn(s.stack)
}

// locked runs an event handler under the stack lock.
func (s *Session) locked(fn func() error) error {
	s.stackMu.Lock()
	defer s.stackMu.Unlock()
	return fn()
}

// Controller returns the debug controller users act on.
func (s *Session) Controller() *debug.UserProcessDebugController { return s.controller }

// ExecutionEnded reports whether the agent closed the connection.
func (s *Session) ExecutionEnded() bool { return s.closed.Load() }

// Pauses returns the pauses seen so far.
func (s *Session) Pauses() []Pause {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Pause(nil), s.pauses...)
}

// Run handles the events read from r until the agent closes the connection,
// r ends or ctx is done.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	s.ctx = ctx
	s.logger.Info("session started")
	err := agent.NewDispatcher(s.responder, s).RunEventsLoop(ctx, r)
	if err != nil {
		s.logger.Error("session stopped", "error", err)
		return err
	}
	s.logger.Info("session ended", "closed", s.ExecutionEnded(), "pauses", len(s.Pauses()))
	return nil
}

// Replay runs a new session over a recorded event stream, writing the
// responses to w.
func Replay(ctx context.Context, r io.Reader, w io.Writer, opts Options) (*Session, error) {
	s := New(agent.NewWriterResponder(w), opts)
	if err := s.Run(ctx, r); err != nil {
		return s, fmt.Errorf("replay events: %w", err)
	}
	return s, nil
}

func (s *Session) IsHandlingEvents() bool { return !s.closed.Load() }

func (s *Session) HandleVersions(ev agent.VersionsEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleVersions(ev) })
}

func (s *Session) HandleResourceImport(ev agent.ResourceImportEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleResourceImport(ev) })
}

func (s *Session) HandleSuiteStarted(ev agent.SuiteStartedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleSuiteStarted(ev) })
}

func (s *Session) HandleSuiteEnded(ev agent.SuiteEndedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleSuiteEnded(ev) })
}

func (s *Session) HandleTestStarted(ev agent.TestStartedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleTestStarted(ev) })
}

func (s *Session) HandleTestEnded(ev agent.TestEndedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleTestEnded(ev) })
}

func (s *Session) HandleKeywordAboutToStart(ev agent.KeywordStartedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleKeywordAboutToStart(ev) })
}

func (s *Session) HandleKeywordStarted(ev agent.KeywordStartedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleKeywordStarted(ev) })
}

func (s *Session) HandleKeywordAboutToEnd(ev agent.KeywordEndedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleKeywordAboutToEnd(ev) })
}

func (s *Session) HandleKeywordEnded(ev agent.KeywordEndedEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleKeywordEnded(ev) })
}

func (s *Session) HandleVariables(ev agent.VariablesEvent) error {
	return s.locked(func() error { return s.StacktraceBuilder.HandleVariables(ev) })
}

func (s *Session) HandleShouldContinue(ev agent.ShouldContinueEvent) error {
	s.stackMu.Lock()
	resp, ok := s.controller.TakeCurrentResponse(ev.Point)
	s.stackMu.Unlock()
	if !ok {
		resp = agent.Continue{}
	}
	s.logger.Debug("responding", "point", ev.Point.String(), "response", resp.Name())
	return respond(ev.Responder, "should_continue", resp)
}

func (s *Session) HandleConditionEvaluated(ev agent.ConditionEvaluatedEvent) error {
	s.controller.ConditionEvaluated(ev)
	return nil
}

// HandlePaused waits for the decision without holding the stack lock so
// that the console can inspect the paused execution.
func (s *Session) HandlePaused(ev agent.PausedEvent) error {
	s.stackMu.Lock()
	future := s.controller.ExecutionPaused()
	p := s.recordPause()
	s.stackMu.Unlock()

	s.logger.Info("execution paused", "reason", p.Reason, "detail", p.Detail, "point", p.Point)
	if s.onPause != nil {
		s.onPause(p)
	}
	resp, err := future.Wait(s.ctx)
	if err != nil {
		return &agent.ListenerError{Event: "paused", Err: err}
	}
	return respond(ev.Responder, "paused", resp)
}

func (s *Session) HandleClosed() error {
	s.closed.Store(true)
	return s.locked(s.StacktraceBuilder.HandleClosed)
}

func respond(r agent.Responder, event string, resp agent.Response) error {
	if r == nil {
		return &agent.ListenerError{Event: event, Err: errors.New("no responder")}
	}
	if err := r.Respond(resp); err != nil {
		return &agent.ListenerError{Event: event, Err: err}
	}
	return nil
}
