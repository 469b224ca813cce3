// Package contexts implements the frame contexts that tie running suites,
// tests and keywords to the places in the suite model they execute.
package contexts

import (
	"fmt"
	"strings"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// located holds what every model-backed context knows: where it is and what
// went wrong while finding it.
type located struct {
	uri  string
	line int
	err  string
}

func (c located) AssociatedPath() (string, bool) { return c.uri, c.uri != "" }

func (c located) FileRegion() (debug.FileRegion, bool) { return debug.LineRegion(c.line), true }

func (c located) IsErroneous() bool { return c.err != "" }

func (c located) ErrorMessage() (string, bool) { return c.err, c.err != "" }

func (c located) IsLibraryKeywordContext() bool { return false }

// lineOf maps unset model lines to the unknown line.
func lineOf(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

func breakpointAt(bp debug.BreakpointSupplier, uri string, line int) (debug.LineBreakpoint, bool) {
	if bp == nil || uri == "" || line <= 0 {
		return nil, false
	}
	return bp.BreakpointAt(uri, line)
}

// keywordMatches compares a keyword name written in the model with a running
// keyword. The written name may carry a library prefix.
func keywordMatches(written string, kw debug.RunningKeyword) bool {
	n := model.NormalizeName(written)
	if n == "" {
		return false
	}
	if n == model.NormalizeName(kw.Name) {
		return true
	}
	return kw.Source != "" && n == model.NormalizeName(kw.Source+"."+kw.Name)
}

func loopMatches(loop *model.ForLoop, name string) bool {
	return strings.EqualFold(squeeze(loop.Description()), squeeze(name))
}

func squeeze(s string) string { return strings.Join(strings.Fields(s), " ") }

func unableToFind(what string, kw debug.RunningKeyword) string {
	return fmt.Sprintf("Unable to find %s call of '%s' keyword\n", what, kw.QualifiedName())
}

// owner is the test case or user keyword whose steps are executed.
type owner struct {
	kind     string // "Test" or "Keyword"
	teardown *model.Setting
}

var unknownOwner = owner{kind: "Test"}

// settingResolution is a keyword-calling setting looked up for a move.
type settingResolution struct {
	label   string // e.g. "Test Setup"
	setting *model.Setting
	uri     string
}

// resolveTestSetting returns the local setting when it is declared, else the
// first declaring settings table, nearest model first.
func resolveTestSetting(label string, local *model.Setting, localURI string, models []*model.File, pick func(*model.Settings) *model.Setting) settingResolution {
	if local != nil {
		return settingResolution{label: label, setting: local, uri: localURI}
	}
	for _, m := range models {
		if m.Settings == nil {
			continue
		}
		if s := pick(m.Settings); s != nil {
			return settingResolution{label: label, setting: s, uri: m.URI}
		}
	}
	return settingResolution{label: label, uri: localURI}
}

// enter builds the setup or teardown context reached through r.
func (r settingResolution) enter(kw debug.RunningKeyword, previous debug.StackFrameContext, bp debug.BreakpointSupplier) debug.StackFrameContext {
	called := r.setting.Keyword()
	var line int
	if r.setting != nil {
		line = r.setting.Line
	}
	switch {
	case called == "":
		return NewSetupTeardownContext(r.uri, -1, unableToFind(r.label, kw)+r.label+" setting could not be found in this suite\n", previous, bp)
	case !keywordMatches(called, kw):
		msg := fmt.Sprintf("%s setting was found but seem to call non-matching keyword '%s'\n", r.label, called)
		return NewSetupTeardownContext(r.uri, lineOf(line), unableToFind(r.label, kw)+msg, previous, bp)
	}
	return NewSetupTeardownContext(r.uri, lineOf(line), "", previous, bp)
}

func testSetup(s *model.Settings) *model.Setting { return s.TestSetup }
func testTeardown(s *model.Settings) *model.Setting { return s.TestTeardown }
