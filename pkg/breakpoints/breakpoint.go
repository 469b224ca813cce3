// Package breakpoints holds the line breakpoints the debugger pauses on.
package breakpoints

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nokia/red-debugger/pkg/debug"
)

// Definition is one entry of a breakpoints file.
type Definition struct {
	Path             string `yaml:"path"                        json:"path"                        jsonschema:"required,minLength=1"`
	Line             int    `yaml:"line"                        json:"line"                        jsonschema:"required,minimum=1"`
	Enabled          *bool  `yaml:"enabled,omitempty"           json:"enabled,omitempty"`
	HitCount         int    `yaml:"hit_count,omitempty"         json:"hit_count,omitempty"         jsonschema:"minimum=1"`
	HitCondition     string `yaml:"hit_condition,omitempty"     json:"hit_condition,omitempty"`
	Condition        string `yaml:"condition,omitempty"         json:"condition,omitempty"`
	ConditionEnabled bool   `yaml:"condition_enabled,omitempty" json:"condition_enabled,omitempty"`
}

// LineBreakpoint is a breakpoint on one line of a suite or resource file.
type LineBreakpoint struct {
	Path    string
	Line    int
	Enabled bool
	// HitCount is the hit from which the breakpoint fires.
	HitCount int
	// HitCondition is an expr boolean over hits, checked after HitCount.
	HitCondition string
	// ConditionCall is the keyword call evaluated by the agent.
	ConditionCall    string
	ConditionEnabled bool

	logger *slog.Logger

	mu       sync.Mutex
	hits     int
	compiled bool
	program  *vm.Program
}

var _ debug.LineBreakpoint = (*LineBreakpoint)(nil)

// New creates a breakpoint from its definition. Enabled defaults to true
// and HitCount to 1.
func New(def Definition, logger *slog.Logger) *LineBreakpoint {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineBreakpoint{
		Path:             def.Path,
		Line:             def.Line,
		Enabled:          def.Enabled == nil || *def.Enabled,
		HitCount:         max(def.HitCount, 1),
		HitCondition:     strings.TrimSpace(def.HitCondition),
		ConditionCall:    def.Condition,
		ConditionEnabled: def.ConditionEnabled,
		logger:           logger,
	}
}

// Hits returns the number of times the breakpoint was reached.
func (b *LineBreakpoint) Hits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits
}

// ResetHits forgets all hits, as at the start of a new run.
func (b *LineBreakpoint) ResetHits() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits = 0
}

func (b *LineBreakpoint) EvaluateHitCount() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.Enabled {
		return false
	}
	b.hits++
	if b.hits < b.HitCount {
		return false
	}
	if b.HitCondition == "" {
		return true
	}
	return b.hitConditionHolds()
}

func (b *LineBreakpoint) hitConditionHolds() bool {
	if !b.compiled {
		b.compiled = true
		program, err := compileHitCondition(b.HitCondition)
		if err != nil {
			b.logger.Warn("hit condition does not compile", "path", b.Path, "line", b.Line, "error", err)
		}
		b.program = program
	}
	if b.program == nil {
		return false
	}
	out, err := expr.Run(b.program, hitEnv(b.hits))
	if err != nil {
		b.logger.Warn("hit condition failed", "path", b.Path, "line", b.Line, "error", err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (b *LineBreakpoint) IsConditionEnabled() bool {
	return b.ConditionEnabled && strings.TrimSpace(b.ConditionCall) != ""
}

func (b *LineBreakpoint) Condition() string { return b.ConditionCall }

func hitEnv(hits int) map[string]any {
	return map[string]any{"hits": hits}
}

func compileHitCondition(condition string) (*vm.Program, error) {
	program, err := expr.Compile(condition, expr.Env(hitEnv(0)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile hit condition %q: %w", condition, err)
	}
	return program, nil
}
