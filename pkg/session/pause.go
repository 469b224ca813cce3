package session

import (
	"fmt"

	"github.com/nokia/red-debugger/pkg/debug"
)

// Pause describes one pause of the execution.
type Pause struct {
	Reason string  `json:"reason"`
	Detail string  `json:"detail,omitempty"`
	Point  string  `json:"point,omitempty"`
	Stack  []Frame `json:"stack"`
}

// Frame is a snapshot of one stack frame, top first.
type Frame struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    int    `json:"level"`
	Path     string `json:"path,omitempty"`
	Line     int    `json:"line,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Snapshot copies the frames of stack, top first.
func Snapshot(stack *debug.Stacktrace) []Frame {
	frames := stack.Frames()
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		fr := Frame{Name: f.Name(), Category: f.Category().String(), Level: f.Level()}
		fr.Path, _ = f.ContextPath()
		if r, ok := f.FileRegion(); ok && r.Start.Line > 0 {
			fr.Line = r.Start.Line
		}
		fr.Error, _ = f.ErrorMessage()
		out = append(out, fr)
	}
	return out
}

func (s *Session) suspended(reason, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &Pause{Reason: reason, Detail: detail}
}

// recordPause completes the pause announced by the controller, if any.
func (s *Session) recordPause() Pause {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	if p == nil {
		p = &Pause{Reason: "AGENT"}
	}
	if point, ok := s.controller.LastPausingPoint(); ok {
		p.Point = point.String()
	}
	p.Stack = Snapshot(s.stack)
	s.pauses = append(s.pauses, *p)
	return *p
}

func (s *Session) PausedOnBreakpoint(bp debug.LineBreakpoint) {
	detail := ""
	if top, ok := s.stack.Peek(); ok {
		path, _ := top.ContextPath()
		if r, ok := top.FileRegion(); ok {
			detail = fmt.Sprintf("%s:%d", path, r.Start.Line)
		}
	}
	s.suspended(debug.SuspendBreakpoint.String(), detail)
}

func (s *Session) PausedByUser() { s.suspended(debug.SuspendUserRequest.String(), "") }

func (s *Session) PausedByStepping() { s.suspended(debug.SuspendStepping.String(), "") }

func (s *Session) PausedOnError(msg string) { s.suspended(debug.SuspendErroneousState.String(), msg) }

func (s *Session) PausedAfterVariableChange(frameLevel int) {
	s.suspended(debug.SuspendVariableChange.String(), fmt.Sprintf("frame %d", frameLevel))
}
