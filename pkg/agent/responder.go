package agent

import (
	"io"
	"sync"
)

// Responder delivers responses to the agent.
type Responder interface {
	Respond(r Response) error
}

// WriterResponder writes each response as one line to an io.Writer. It is
// safe for concurrent use.
type WriterResponder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterResponder creates a responder writing to w.
func NewWriterResponder(w io.Writer) *WriterResponder {
	return &WriterResponder{w: w}
}

// Respond encodes r and writes it followed by a newline. Failures are
// returned as *ResponseError.
func (wr *WriterResponder) Respond(r Response) error {
	data, err := EncodeResponse(r)
	if err != nil {
		return &ResponseError{Response: r.Name(), Err: err}
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if _, err := wr.w.Write(append(data, '\n')); err != nil {
		return &ResponseError{Response: r.Name(), Err: err}
	}
	return nil
}
