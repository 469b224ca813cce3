package debug

import (
	"strconv"
	"strings"
)

// TypesFixer normalizes declared call types. Every call must go through
// KeywordStarting, KeywordStarted and KeywordEnded in that order.
type TypesFixer interface {
	// KeywordStarting returns the fixed type of a call about to start.
	// isLastExecutable reports whether the call is the last executable of
	// the enclosing block.
	KeywordStarting(declared KeywordCallType, isLastExecutable func() bool) KeywordCallType
	// KeywordStarted returns the type fixed by the preceding KeywordStarting
	// and opens a nesting level for the call.
	KeywordStarted() KeywordCallType
	// KeywordEnded closes the nesting level of the current call.
	KeywordEnded()
}

// NewTypesFixer selects the fixer for the given runtime version. Runtimes
// older than 3.0 mislabel calls and get the legacy fixer.
func NewTypesFixer(robotVersion string) TypesFixer {
	if major, ok := majorVersion(robotVersion); ok && major < 3 {
		return newLegacyFixer()
	}
	return &defaultFixer{}
}

func majorVersion(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, ". "); i >= 0 {
		v = v[:i]
	}
	major, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return major, true
}

// defaultFixer keeps declared types as they are.
type defaultFixer struct {
	pending []KeywordCallType
}

func (f *defaultFixer) KeywordStarting(declared KeywordCallType, _ func() bool) KeywordCallType {
	f.pending = append(f.pending, declared)
	return declared
}

func (f *defaultFixer) KeywordStarted() KeywordCallType {
	if len(f.pending) == 0 {
		return NormalCall
	}
	return f.pending[len(f.pending)-1]
}

func (f *defaultFixer) KeywordEnded() {
	if len(f.pending) > 0 {
		f.pending = f.pending[:len(f.pending)-1]
	}
}

type overrideKind int

const (
	noOverride overrideKind = iota
	loopOverride
	iterationOverride
	blockOverride
)

// fixLevel is the override applied to children of one open call.
type fixLevel struct {
	kind      overrideKind
	blockType KeywordCallType
}

func (l fixLevel) apply(declared KeywordCallType, isLast func() bool) KeywordCallType {
	switch l.kind {
	case loopOverride:
		return ForIteration
	case iterationOverride:
		if declared == For {
			return For
		}
		return NormalCall
	case blockOverride:
		if declared == For {
			return For
		}
		if isLast != nil && isLast() {
			return l.blockType
		}
		return NormalCall
	}
	return declared
}

func levelFor(t KeywordCallType) fixLevel {
	switch t {
	case For:
		return fixLevel{kind: loopOverride}
	case ForIteration:
		return fixLevel{kind: iterationOverride}
	case Setup, Teardown:
		return fixLevel{kind: blockOverride, blockType: t}
	}
	return fixLevel{kind: noOverride}
}

// legacyFixer is a pushdown automaton with one override per open call.
type legacyFixer struct {
	levels  []fixLevel
	pending KeywordCallType
}

func newLegacyFixer() *legacyFixer {
	return &legacyFixer{levels: []fixLevel{{kind: noOverride}}}
}

func (f *legacyFixer) top() fixLevel {
	return f.levels[len(f.levels)-1]
}

func (f *legacyFixer) KeywordStarting(declared KeywordCallType, isLastExecutable func() bool) KeywordCallType {
	f.pending = f.top().apply(declared, isLastExecutable)
	return f.pending
}

func (f *legacyFixer) KeywordStarted() KeywordCallType {
	t := f.pending
	f.levels = append(f.levels, levelFor(t))
	f.pending = NormalCall
	return t
}

func (f *legacyFixer) KeywordEnded() {
	if len(f.levels) > 1 {
		f.levels = f.levels[:len(f.levels)-1]
	}
}
