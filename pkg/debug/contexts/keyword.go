package contexts

import (
	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// KeywordOfUserContext is the context of a user keyword frame before its
// first executable runs.
type KeywordOfUserContext struct {
	located
	keyword *model.Keyword
	steps   steps
}

// NewKeywordOfUserContext creates the context of keyword defined in the
// file at uri. models are the file and its parent suites, nearest first.
func NewKeywordOfUserContext(keyword *model.Keyword, uri string, models []*model.File) *KeywordOfUserContext {
	return &KeywordOfUserContext{
		located: located{uri: uri, line: lineOf(keyword.Line)},
		keyword: keyword,
		steps: steps{
			models: models,
			owner:  owner{kind: "Keyword", teardown: keyword.Teardown},
			list:   keyword.Steps,
			uri:    uri,
		},
	}
}

func (c *KeywordOfUserContext) LineBreakpoint() (debug.LineBreakpoint, bool) { return nil, false }

func (c *KeywordOfUserContext) PreviousContext() debug.StackFrameContext { return c }

func (c *KeywordOfUserContext) MoveTo(kw debug.RunningKeyword, bp debug.BreakpointSupplier) debug.StackFrameContext {
	switch kw.CallType {
	case debug.Setup, debug.Teardown:
		debug.IllegalState("Setup or Teardown keyword cannot be called when user keyword is about to start")
	case debug.ForIteration:
		return FindContextForLoopIteration(c, kw.Name)
	}
	return c.steps.match(0, c.line, kw, bp)
}
