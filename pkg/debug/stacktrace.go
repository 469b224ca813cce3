package debug

import (
	"strings"

	"github.com/nokia/red-debugger/pkg/agent"
)

// Stacktrace is the call stack of one execution. It is owned by the goroutine
// processing agent events and is not safe for concurrent mutation.
type Stacktrace struct {
	frames []*StackFrame // bottom first
}

// NewStacktrace creates an empty stack.
func NewStacktrace() *Stacktrace {
	return &Stacktrace{}
}

// Push puts a frame on top of the stack.
func (s *Stacktrace) Push(f *StackFrame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame.
func (s *Stacktrace) Pop() (*StackFrame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	top := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return top, true
}

// Peek returns the top frame.
func (s *Stacktrace) Peek() (*StackFrame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *Stacktrace) IsEmpty() bool { return len(s.frames) == 0 }

func (s *Stacktrace) Size() int { return len(s.frames) }

// Frames returns the frames from top to bottom.
func (s *Stacktrace) Frames() []*StackFrame {
	out := make([]*StackFrame, len(s.frames))
	for i, f := range s.frames {
		out[len(s.frames)-1-i] = f
	}
	return out
}

// FindParentFrame returns the frame directly beneath f.
func (s *Stacktrace) FindParentFrame(f *StackFrame) (*StackFrame, bool) {
	for i := len(s.frames) - 1; i > 0; i-- {
		if s.frames[i] == f {
			return s.frames[i-1], true
		}
	}
	return nil, false
}

// FirstFrameSatisfying scans from top to bottom for a frame matching pred.
func (s *Stacktrace) FirstFrameSatisfying(pred func(*StackFrame) bool) (*StackFrame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if pred(s.frames[i]) {
			return s.frames[i], true
		}
	}
	return nil, false
}

// AnyFrame reports whether some frame matches pred.
func (s *Stacktrace) AnyFrame(pred func(*StackFrame) bool) bool {
	_, ok := s.FirstFrameSatisfying(pred)
	return ok
}

// HasCategoryOnTop reports whether the top frame has the given category.
func (s *Stacktrace) HasCategoryOnTop(c FrameCategory) bool {
	top, ok := s.Peek()
	return ok && top.HasCategory(c)
}

// CurrentPath is the source path of the top frame's context.
func (s *Stacktrace) CurrentPath() (string, bool) {
	top, ok := s.Peek()
	if !ok {
		return "", false
	}
	return top.CurrentSourcePath()
}

// ContextPath is the context path of the top frame.
func (s *Stacktrace) ContextPath() (string, bool) {
	top, ok := s.Peek()
	if !ok {
		return "", false
	}
	return top.ContextPath()
}

// Destroy removes all frames.
func (s *Stacktrace) Destroy() {
	clear(s.frames)
	s.frames = s.frames[:0]
}

// UpdateVariables distributes the variable layers reported by the agent over
// the frames. Layers come innermost first and the last one holds only the
// global variables, so the frame at level L gets layers[len-2-L]. Frames
// without a matching layer are left as they are.
func (s *Stacktrace) UpdateVariables(layers []agent.ScopeMap) {
	for _, f := range s.frames {
		idx := len(layers) - 2 - f.level
		if idx < 0 || idx >= len(layers) {
			continue
		}
		f.setVariables(layers[idx])
	}
}

func (s *Stacktrace) String() string {
	names := make([]string, 0, len(s.frames))
	for _, f := range s.Frames() {
		names = append(names, f.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}
