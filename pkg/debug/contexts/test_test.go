package contexts

import (
	"testing"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

const initURI = "file:///ws/__init__.robot"

func TestTestCaseContext_WalksExecutables(t *testing.T) {
	test := &model.TestCase{Name: "t", Line: 2, Steps: []model.Step{call(3, "kw"), call(4, "other")}}
	c := NewTestCaseContext(test, fileURI, nil, "")

	first := c.MoveTo(running("lib", "kw", debug.NormalCall), breakpointsOn(3))
	expectError(t, first, "")
	if _, ok := first.LineBreakpoint(); !ok {
		t.Error("breakpoint on line 3 not found")
	}
	if got := first.(debug.ExecutablesContext).RemainingExecutables(); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}

	second := first.MoveTo(running("lib", "other", debug.NormalCall), nil)
	expectError(t, second, "")
	if r, _ := second.FileRegion(); r != debug.LineRegion(4) {
		t.Errorf("region = %+v", r)
	}
	if !second.(*ExecutableCallContext).IsOnLastExecutable() {
		t.Error("second step should be the last")
	}

	beyond := second.MoveTo(running("lib", "third", debug.NormalCall), nil)
	expectError(t, beyond, "Unable to find executable call of 'lib.third' keyword\n")
	if r, _ := beyond.FileRegion(); r != debug.LineRegion(4) {
		t.Errorf("region past the end = %+v, want the last known line", r)
	}
}

func TestTestCaseContext_MatchingErrors(t *testing.T) {
	loopStep := loop(3, []string{"${x}"}, []string{"1", "2"}, call(4, "log"))
	tests := []struct {
		name  string
		steps []model.Step
		kw    debug.RunningKeyword
		want  string
	}{
		{
			name: "no executables",
			kw:   running("lib", "kw", debug.NormalCall),
			want: "Unable to find executable call of 'lib.kw' keyword\n",
		},
		{
			name:  "loop instead of call",
			steps: []model.Step{loopStep},
			kw:    running("lib", "kw", debug.NormalCall),
			want:  "Unable to find executable call of 'lib.kw' keyword\n:FOR loop was found instead\n",
		},
		{
			name:  "other keyword",
			steps: []model.Step{call(3, "log")},
			kw:    running("lib", "kw", debug.NormalCall),
			want:  "Unable to find executable call of 'lib.kw' keyword\nAn executable was found but seem to call non-matching keyword 'log'\n",
		},
		{
			name:  "call instead of loop",
			steps: []model.Step{call(3, "log")},
			kw:    running("", "${x} IN [ 1 ]", debug.For),
			want:  "Unable to find :FOR loop\nAn executable was found calling 'log' keyword\n",
		},
		{
			name:  "other loop",
			steps: []model.Step{loopStep},
			kw:    running("", "${y} IN [ 1 | 2 ]", debug.For),
			want:  "Unable to find matching :FOR loop\n':FOR ${x} IN [ 1 | 2 ]' was found but ':FOR ${y} IN [ 1 | 2 ]' is being executed\n",
		},
		{
			name:  "matching loop",
			steps: []model.Step{loopStep},
			kw:    running("", "${x}  in [ 1 | 2 ]", debug.For),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := &model.TestCase{Name: "t", Line: 2, Steps: tt.steps}
			next := NewTestCaseContext(test, fileURI, nil, "").MoveTo(tt.kw, nil)
			expectError(t, next, tt.want)
		})
	}
}

func TestTestCaseContext_TemplateReplacesKeyword(t *testing.T) {
	file := &model.File{URI: fileURI, Settings: &model.Settings{TestTemplate: setting(1, "Settings Template")}}
	test := &model.TestCase{Name: "t", Line: 2, Steps: []model.Step{call(3, "arg1"), call(4, "arg2")}}

	c := NewTestCaseContext(test, fileURI, []*model.File{file}, "")
	expectError(t, c.MoveTo(running("res", "settings template", debug.NormalCall), nil), "")

	test.Template = setting(2, "Local Template")
	c = NewTestCaseContext(test, fileURI, []*model.File{file}, "")
	expectError(t, c.MoveTo(running("res", "Local_Template", debug.NormalCall), nil), "")

	c = NewTestCaseContext(test, fileURI, []*model.File{file}, "Event Template")
	expectError(t, c.MoveTo(running("res", "Event Template", debug.NormalCall), nil), "")
}

func TestTestCaseContext_SetupResolution(t *testing.T) {
	const header = "Unable to find Test Setup call of 'lib.kw' keyword\n"
	tests := []struct {
		name     string
		local    *model.Setting
		file     *model.Settings
		init     *model.Settings
		wantURI  string
		wantLine int
		wantErr  string
	}{
		{name: "local", local: setting(3, "kw"), init: &model.Settings{TestSetup: setting(1, "kw")}, wantURI: fileURI, wantLine: 3},
		{name: "suite settings", file: &model.Settings{TestSetup: setting(1, "kw")}, wantURI: fileURI, wantLine: 1},
		{name: "parent suite", init: &model.Settings{TestSetup: setting(7, "kw")}, wantURI: initURI, wantLine: 7},
		{name: "nearest wins", file: &model.Settings{TestSetup: setting(1, "kw")}, init: &model.Settings{TestSetup: setting(7, "other")}, wantURI: fileURI, wantLine: 1},
		{
			name:     "declared empty locally",
			local:    setting(3),
			init:     &model.Settings{TestSetup: setting(7, "kw")},
			wantURI:  fileURI,
			wantLine: -1,
			wantErr:  header + "Test Setup setting could not be found in this suite\n",
		},
		{
			name:     "non-matching",
			file:     &model.Settings{TestSetup: setting(1, "other")},
			wantURI:  fileURI,
			wantLine: 1,
			wantErr:  header + "Test Setup setting was found but seem to call non-matching keyword 'other'\n",
		},
		{
			name:     "nowhere",
			wantURI:  fileURI,
			wantLine: -1,
			wantErr:  header + "Test Setup setting could not be found in this suite\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := []*model.File{
				{URI: fileURI, Settings: tt.file},
				{URI: initURI, Settings: tt.init},
			}
			test := &model.TestCase{Name: "t", Line: 2, Setup: tt.local}
			c := NewTestCaseContext(test, fileURI, models, "")

			next := c.MoveTo(running("lib", "kw", debug.Setup), nil)
			expectError(t, next, tt.wantErr)
			if uri, _ := next.AssociatedPath(); uri != tt.wantURI {
				t.Errorf("uri = %q, want %q", uri, tt.wantURI)
			}
			if r, _ := next.FileRegion(); r != debug.LineRegion(tt.wantLine) {
				t.Errorf("region = %+v, want line %d", r, tt.wantLine)
			}
			if next.PreviousContext() != debug.StackFrameContext(c) {
				t.Error("setup should return to the test")
			}
		})
	}
}

func TestTestCaseContext_Teardown(t *testing.T) {
	models := []*model.File{{URI: fileURI}, {URI: initURI, Settings: &model.Settings{TestTeardown: setting(4, "kw")}}}
	test := &model.TestCase{Name: "t", Line: 2}

	next := NewTestCaseContext(test, fileURI, models, "").MoveTo(running("lib", "kw", debug.Teardown), nil)
	expectError(t, next, "")
	if uri, _ := next.AssociatedPath(); uri != initURI {
		t.Errorf("uri = %q", uri)
	}
}

func TestTestCaseContext_IterationBeforeStart(t *testing.T) {
	c := NewTestCaseContext(&model.TestCase{Name: "t"}, fileURI, nil, "")
	expectIllegalState(t, "For loop iteration cannot be called when test case is about to start", func() {
		c.MoveTo(running("", "${x} = 1", debug.ForIteration), nil)
	})
}

func TestMissingTestCaseContext_Moves(t *testing.T) {
	c := NewMissingTestCaseContext(nil, fileURI, 4, "error")
	expectError(t, c, "error")

	expectError(t, c.MoveTo(running("lib", "kw", debug.Setup), nil),
		"Unable to find Test Setup call of 'lib.kw' keyword\nTest Setup setting could not be found in this suite\n")
	expectError(t, c.MoveTo(running("lib", "kw", debug.NormalCall), nil),
		"Unable to find executable call of 'lib.kw' keyword\n")
}
