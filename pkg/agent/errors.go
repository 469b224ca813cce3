package agent

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent is returned when an agent message cannot be decoded.
var ErrMalformedEvent = errors.New("malformed agent event")

// ResponseError reports a response that could not be delivered to the agent.
type ResponseError struct {
	Response string
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("send %s response: %v", e.Response, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// ListenerError reports a failure of an events listener while handling an
// event. The events loop stops when it sees one.
type ListenerError struct {
	Event string
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("handle %s event: %v", e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }
