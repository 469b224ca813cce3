package contexts

import (
	"testing"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

func TestForLoop_IterationsAndContinuation(t *testing.T) {
	test := &model.TestCase{Name: "t", Line: 2, Steps: []model.Step{
		loop(3, []string{"${x}"}, []string{"1", "2"}, call(4, "log")),
		call(5, "after"),
	}}
	tc := NewTestCaseContext(test, fileURI, nil, "")

	loopCtx := tc.MoveTo(running("", "${x} IN [ 1 | 2 ]", debug.For), nil)
	expectError(t, loopCtx, "")
	if l, ok := loopCtx.(*ForLoopContext).Loop(); !ok || l.Line != 3 {
		t.Fatalf("loop = %+v, %v", l, ok)
	}

	for _, name := range []string{"${x} = 1", "${x} = 2"} {
		it := loopCtx.MoveTo(running("", name, debug.ForIteration), nil)
		expectError(t, it, "")
		if it.PreviousContext() != loopCtx {
			t.Fatal("iteration should return to the loop")
		}
		body := it.MoveTo(running("BuiltIn", "Log", debug.NormalCall), breakpointsOn(4))
		expectError(t, body, "")
		if _, ok := body.LineBreakpoint(); !ok {
			t.Error("breakpoint in the loop body not found")
		}
	}

	after := loopCtx.MoveTo(running("lib", "after", debug.NormalCall), nil)
	expectError(t, after, "")
	if r, _ := after.FileRegion(); r != debug.LineRegion(5) {
		t.Errorf("region = %+v", r)
	}
}

func TestFindContextForLoopIteration_Errors(t *testing.T) {
	twoVars := &model.ForLoop{Variables: []string{"${x}", "${y}"}, Values: []string{"1", "2"}, Line: 3}
	tests := []struct {
		name    string
		loopCtx *ForLoopContext
		iter    string
		want    string
	}{
		{"matching variables", NewForLoopContext(twoVars, fileURI, 3, ""), "${x} = 1, ${y} = 2", ""},
		{"swapped variables", NewForLoopContext(twoVars, fileURI, 3, ""), "${y} = 1, ${x} = 2",
			"The loop is iterating with [${y}, ${x}] variables but [${x}, ${y}] were expected\n"},
		{"erroneous loop", NewForLoopContext(twoVars, fileURI, 3, "error"), "${x} = 1", "No loop found for iteration of '${x} = 1'\n"},
		{"no loop", NewForLoopContext(nil, fileURI, 3, ""), "${x} = 1", "No loop found for iteration of '${x} = 1'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, FindContextForLoopIteration(tt.loopCtx, tt.iter), tt.want)
		})
	}
}

func TestFindContextForLoopIteration_OutsideLoop(t *testing.T) {
	c := NewExecutableCallContext(nil, []model.Step{call(3, "kw")}, 0, fileURI, 3, "", nil)
	expectIllegalState(t, "For loop iteration can only be called when already context was moved to for-loop context", func() {
		c.MoveTo(running("", "${x} = 1", debug.ForIteration), nil)
	})
}

func TestForLoopIterationContext_OnlyNormalCalls(t *testing.T) {
	l := &model.ForLoop{Variables: []string{"${x}"}, Values: []string{"1"}, Line: 3}
	it := FindContextForLoopIteration(NewForLoopContext(l, fileURI, 3, ""), "${x} = 1")
	for _, ct := range []debug.KeywordCallType{debug.Setup, debug.Teardown, debug.For, debug.ForIteration} {
		expectIllegalState(t, "Only normal keyword can be called when executing loop", func() {
			it.MoveTo(running("lib", "kw", ct), nil)
		})
	}
}

func TestForLoopIterationContext_WithoutLoopStays(t *testing.T) {
	it := FindContextForLoopIteration(NewForLoopContext(nil, fileURI, 3, ""), "${x} = 1")
	if it.MoveTo(running("lib", "kw", debug.NormalCall), nil) != it {
		t.Error("iteration without a loop should not move")
	}
}
