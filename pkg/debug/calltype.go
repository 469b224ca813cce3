package debug

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedCallType is returned for a keyword type token the debugger
// does not know. Execution past such a token cannot be modeled.
var ErrUnrecognizedCallType = errors.New("unrecognized keyword call type")

// KeywordCallType classifies a keyword call.
type KeywordCallType int

const (
	NormalCall KeywordCallType = iota
	Setup
	Teardown
	For
	ForIteration
)

func (t KeywordCallType) String() string {
	switch t {
	case NormalCall:
		return "NORMAL_CALL"
	case Setup:
		return "SETUP"
	case Teardown:
		return "TEARDOWN"
	case For:
		return "FOR"
	case ForIteration:
		return "FOR_ITERATION"
	}
	return fmt.Sprintf("KeywordCallType(%d)", int(t))
}

// ParseKeywordCallType maps a keyword type reported by the agent onto a call
// type. Both the old and the current runtime vocabularies are accepted.
func ParseKeywordCallType(token string) (KeywordCallType, error) {
	switch strings.ToLower(token) {
	case "keyword":
		return NormalCall, nil
	case "setup", "suite setup", "test setup":
		return Setup, nil
	case "teardown", "suite teardown", "test teardown":
		return Teardown, nil
	case "for", "suite for", "test for":
		return For, nil
	case "for item", "foritem", "suite foritem", "test foritem":
		return ForIteration, nil
	}
	return 0, fmt.Errorf("parse keyword type %q: %w", token, ErrUnrecognizedCallType)
}

// RunningKeyword identifies a keyword call together with its classified type.
type RunningKeyword struct {
	Source   string
	Name     string
	CallType KeywordCallType
}

// QualifiedName returns "source.name", or the bare name without a source.
func (k RunningKeyword) QualifiedName() string {
	if k.Source == "" {
		return k.Name
	}
	return k.Source + "." + k.Name
}

func (k RunningKeyword) String() string {
	return fmt.Sprintf("%s [%s]", k.QualifiedName(), k.CallType)
}
