package debug

import (
	"log/slog"
	"sync"

	"github.com/nokia/red-debugger/pkg/agent"
)

// Controller decides how the agent proceeds at pausing points and after it
// has paused.
type Controller interface {
	TakeCurrentResponse(point agent.PausingPoint) (agent.Response, bool)
	ConditionEvaluated(ev agent.ConditionEvaluatedEvent)
	ExecutionPaused() *agent.FutureResponse
}

type responseWithCallback struct {
	response agent.Response
	callback func()
}

// UserProcessController answers pausing points with responses requested by
// the user. Requests may come from any goroutine.
type UserProcessController struct {
	mu      sync.Mutex
	manual  []responseWithCallback
	waiting *agent.FutureResponse

	interactive bool
	logger      *slog.Logger
}

// ControllerOption configures a controller.
type ControllerOption func(*UserProcessController)

// Interactive makes ExecutionPaused wait for the next user request instead
// of continuing at once.
func Interactive() ControllerOption {
	return func(c *UserProcessController) { c.interactive = true }
}

// WithControllerLogger sets the controller's logger.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *UserProcessController) { c.logger = l }
}

// NewUserProcessController creates a controller with an empty request queue.
func NewUserProcessController(opts ...ControllerOption) *UserProcessController {
	c := &UserProcessController{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Controller = (*UserProcessController)(nil)

// offer queues a response. When the agent is paused and waits for a
// decision, the response resolves that wait instead.
func (c *UserProcessController) offer(r agent.Response, callback func()) {
	c.mu.Lock()
	waiting := c.waiting
	if waiting == nil {
		c.manual = append(c.manual, responseWithCallback{response: r, callback: callback})
		c.mu.Unlock()
		return
	}
	c.waiting = nil
	c.mu.Unlock()

	if callback != nil {
		callback()
	}
	waiting.Resolve(r)
}

func (c *UserProcessController) takeManual() (agent.Response, bool) {
	c.mu.Lock()
	if len(c.manual) == 0 {
		c.mu.Unlock()
		return nil, false
	}
	next := c.manual[0]
	c.manual[0] = responseWithCallback{}
	c.manual = c.manual[1:]
	c.mu.Unlock()

	if next.callback != nil {
		next.callback()
	}
	return next.response, true
}

// PendingResponses returns the number of queued user requests.
func (c *UserProcessController) PendingResponses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.manual)
}

// TakeCurrentResponse dequeues the oldest user request, running its callback.
func (c *UserProcessController) TakeCurrentResponse(agent.PausingPoint) (agent.Response, bool) {
	return c.takeManual()
}

// TakeFutureResponse returns a future resolved by the next user request. A
// request already queued resolves it immediately.
func (c *UserProcessController) TakeFutureResponse() *agent.FutureResponse {
	f := agent.NewFutureResponse()
	c.mu.Lock()
	if len(c.manual) == 0 {
		c.waiting = f
		c.mu.Unlock()
		return f
	}
	c.mu.Unlock()

	r, _ := c.takeManual()
	f.Resolve(r)
	return f
}

// ConditionEvaluated is a no-op without a debugger.
func (c *UserProcessController) ConditionEvaluated(agent.ConditionEvaluatedEvent) {}

// ExecutionPaused returns the response for a paused agent. Interactive
// controllers wait for the user; others continue.
func (c *UserProcessController) ExecutionPaused() *agent.FutureResponse {
	if !c.interactive {
		if r, ok := c.takeManual(); ok {
			return agent.ResolvedResponse(r)
		}
		return agent.ResolvedResponse(agent.Continue{})
	}
	return c.TakeFutureResponse()
}

func (c *UserProcessController) Pause(whenSent func()) {
	c.offer(agent.Pause{}, whenSent)
}

func (c *UserProcessController) Resume(whenSent func()) {
	c.offer(agent.Resume{}, whenSent)
}

func (c *UserProcessController) Interrupt(whenSent func()) {
	c.offer(agent.Interrupt{}, whenSent)
}

func (c *UserProcessController) Terminate(whenSent func()) {
	c.offer(agent.Terminate{}, whenSent)
}

func (c *UserProcessController) Disconnect(whenSent func()) {
	c.offer(agent.Disconnect{}, whenSent)
}
