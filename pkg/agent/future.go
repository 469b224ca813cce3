package agent

import (
	"context"
	"sync"
)

// FutureResponse is a response that becomes known later, typically once a
// user decides how a paused execution should go on.
type FutureResponse struct {
	once sync.Once
	done chan struct{}
	resp Response
}

// NewFutureResponse creates an unresolved future.
func NewFutureResponse() *FutureResponse {
	return &FutureResponse{done: make(chan struct{})}
}

// ResolvedResponse creates a future already resolved with r.
func ResolvedResponse(r Response) *FutureResponse {
	f := NewFutureResponse()
	f.Resolve(r)
	return f
}

// Resolve completes the future. Only the first call has an effect; it
// reports whether this call resolved the future.
func (f *FutureResponse) Resolve(r Response) bool {
	resolved := false
	f.once.Do(func() {
		f.resp = r
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the future is resolved.
func (f *FutureResponse) Done() <-chan struct{} { return f.done }

// Wait blocks until the future is resolved or ctx is done.
func (f *FutureResponse) Wait(ctx context.Context) (Response, error) {
	select {
	case <-f.done:
		return f.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
