package contexts

import (
	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// TestCaseContext is the context of a test frame before its first
// executable runs.
type TestCaseContext struct {
	located
	test  *model.TestCase // nil when the test is not in the model
	steps steps
}

// NewTestCaseContext creates the context of test defined in the file at uri.
// models are that file and its parent suites, nearest first. A non-empty
// template overrides the template settings.
func NewTestCaseContext(test *model.TestCase, uri string, models []*model.File, template string) *TestCaseContext {
	if template == "" {
		template = testTemplate(test, models)
	}
	return &TestCaseContext{
		located: located{uri: uri, line: lineOf(test.Line)},
		test:    test,
		steps: steps{
			models:   models,
			owner:    owner{kind: "Test", teardown: test.Teardown},
			list:     test.Steps,
			uri:      uri,
			template: template,
		},
	}
}

// NewMissingTestCaseContext creates the context of a test that could not be
// found in the model.
func NewMissingTestCaseContext(models []*model.File, uri string, line int, errMsg string) *TestCaseContext {
	return &TestCaseContext{
		located: located{uri: uri, line: line, err: errMsg},
		steps:   steps{models: models, owner: unknownOwner, uri: uri},
	}
}

func testTemplate(test *model.TestCase, models []*model.File) string {
	if test.Template != nil {
		return test.Template.Keyword()
	}
	for _, m := range models {
		if m.Settings != nil && m.Settings.TestTemplate != nil {
			return m.Settings.TestTemplate.Keyword()
		}
	}
	return ""
}

func (c *TestCaseContext) LineBreakpoint() (debug.LineBreakpoint, bool) { return nil, false }

func (c *TestCaseContext) PreviousContext() debug.StackFrameContext { return c }

func (c *TestCaseContext) MoveTo(kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	switch kw.CallType {
	case debug.Setup:
		var local *model.Setting
		if c.test != nil {
			local = c.test.Setup
		}
		return resolveTestSetting("Test Setup", local, c.uri, c.steps.models, testSetup).enter(kw, c, bp)
	case debug.Teardown:
		return resolveTestSetting("Test Teardown", c.steps.owner.teardown, c.uri, c.steps.models, testTeardown).enter(kw, c, bp)
	case debug.ForIteration:
		debug.IllegalState("For loop iteration cannot be called when test case is about to start")
	}
	return c.steps.match(0, c.line, kw, bp)
}
