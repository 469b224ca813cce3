package contexts

import (
	"fmt"
	"strings"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// SuiteContext is the context of a suite frame. Inside a suite only the
// suite setup and teardown can be called.
type SuiteContext struct {
	name        string
	uri         string
	isDirectory bool
	file        *model.File // suite file, or __init__ file of a directory
	err         string
}

var _ debug.SuiteContext = (*SuiteContext)(nil)

// NewSuiteContext creates the context of the suite at uri. file is nil when
// the suite has no model.
func NewSuiteContext(name, uri string, isDirectory bool, file *model.File, errMsg string) *SuiteContext {
	return &SuiteContext{name: name, uri: uri, isDirectory: isDirectory, file: file, err: errMsg}
}

func (c *SuiteContext) AssociatedPath() (string, bool) { return c.uri, c.uri != "" }

func (c *SuiteContext) FileRegion() (debug.FileRegion, bool) { return debug.FileRegion{}, false }

func (c *SuiteContext) IsErroneous() bool { return c.err != "" }

func (c *SuiteContext) ErrorMessage() (string, bool) { return c.err, c.err != "" }

func (c *SuiteContext) LineBreakpoint() (debug.LineBreakpoint, bool) { return nil, false }

func (c *SuiteContext) IsLibraryKeywordContext() bool { return false }

func (c *SuiteContext) IsDirectory() bool { return c.isDirectory }

func (c *SuiteContext) PreviousContext() debug.StackFrameContext { return c }

// File returns the model of the suite.
func (c *SuiteContext) File() (*model.File, bool) { return c.file, c.file != nil }

func (c *SuiteContext) MoveTo(kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	var label string
	var pick func(*model.Settings) *model.Setting
	switch kw.CallType {
	case debug.Setup:
		label, pick = "Suite Setup", func(s *model.Settings) *model.Setting { return s.SuiteSetup }
	case debug.Teardown:
		label, pick = "Suite Teardown", func(s *model.Settings) *model.Setting { return s.SuiteTeardown }
	default:
		debug.IllegalState("Only suite setup or teardown keyword call is possible in current context")
	}

	if c.err != "" {
		return NewSetupTeardownContext(c.uri, -1, unableToFind(label, kw)+c.err, c, bp)
	}
	if c.file == nil {
		return NewSetupTeardownContext(c.uri, -1, unableToFind(label, kw)+c.missingModelMessage(), c, bp)
	}
	r := settingResolution{label: label, uri: c.file.URI}
	if c.file.Settings != nil {
		r.setting = pick(c.file.Settings)
	}
	return r.enter(kw, c, bp)
}

func (c *SuiteContext) missingModelMessage() string {
	location := "<unknown>"
	if c.uri != "" {
		location = strings.TrimPrefix(c.uri, "file://")
	}
	if c.isDirectory {
		return fmt.Sprintf("The suite '%s' is located in workspace at %s but RED couldn't find __init__ file inside this directory\n", c.name, location)
	}
	return fmt.Sprintf("The suite '%s' is located in workspace at %s but RED couldn't find its model\n", c.name, location)
}
