package debug

import (
	"reflect"
	"sort"
	"strings"

	"github.com/nokia/red-debugger/pkg/agent"
)

var automaticVariables = normalizedSet(
	"${true}", "${false}", "${none}", "${null}", "${empty}", "${space}",
	"${curdir}", "${tempdir}", "${execdir}", "${/}", "${:}", "${\\n}",
	"${suite_name}", "${suite_source}", "${suite_documentation}", "${suite_status}", "${suite_message}",
	"${test_name}", "${test_documentation}", "${test_status}", "${test_message}", "${test_tags}",
	"${prev_test_name}", "${prev_test_status}", "${prev_test_message}",
	"${keyword_status}", "${keyword_message}", "${log_level}",
	"${output_file}", "${log_file}", "${report_file}", "${debug_file}", "${output_dir}",
	"&{suite_metadata}", "@{test_tags}", "${options}",
)

func normalizedSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[normalizeVariableName(n)] = struct{}{}
	}
	return set
}

var nameNoise = strings.NewReplacer(" ", "", "_", "")

func normalizeVariableName(name string) string {
	return nameNoise.Replace(strings.ToLower(name))
}

// IsAutomaticVariable reports whether the runtime defines the variable itself.
func IsAutomaticVariable(name string) bool {
	_, ok := automaticVariables[normalizeVariableName(name)]
	return ok
}

// StackFrameVariable is one variable visible in a frame.
type StackFrameVariable struct {
	Scope     agent.VariableScope
	Automatic bool
	Name      string
	Type      string
	Value     any
}

// StackFrameVariables is the variable snapshot of a frame.
type StackFrameVariables struct {
	vars map[string]StackFrameVariable
}

// NewStackFrameVariables creates a snapshot holding exactly vars.
func NewStackFrameVariables(vars map[string]StackFrameVariable) *StackFrameVariables {
	copied := make(map[string]StackFrameVariable, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return &StackFrameVariables{vars: copied}
}

// NewNonLocalVariables creates a snapshot from one scope map reported by the
// agent.
func NewNonLocalVariables(layer agent.ScopeMap) *StackFrameVariables {
	return &StackFrameVariables{vars: fromScopeMap(layer)}
}

// NewLocalVariables creates the snapshot of a frame entered from parent. The
// parent's local variables are kept only when preserveLocals is set.
func NewLocalVariables(parent *StackFrameVariables, preserveLocals bool) *StackFrameVariables {
	vars := make(map[string]StackFrameVariable)
	if parent != nil {
		for name, v := range parent.vars {
			if v.Scope == agent.ScopeLocal && !preserveLocals {
				continue
			}
			vars[name] = v
		}
	}
	return &StackFrameVariables{vars: vars}
}

func fromScopeMap(layer agent.ScopeMap) map[string]StackFrameVariable {
	vars := make(map[string]StackFrameVariable, len(layer))
	for v, tv := range layer {
		vars[v.Name] = StackFrameVariable{
			Scope:     v.Scope,
			Automatic: IsAutomaticVariable(v.Name),
			Name:      v.Name,
			Type:      tv.Type,
			Value:     tv.Value,
		}
	}
	return vars
}

// Get returns the variable with the given name.
func (s *StackFrameVariables) Get(name string) (StackFrameVariable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Len returns the number of variables.
func (s *StackFrameVariables) Len() int { return len(s.vars) }

// Names returns the variable names in sorted order.
func (s *StackFrameVariables) Names() []string {
	names := make([]string, 0, len(s.vars))
	for n := range s.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the variables sorted by name.
func (s *StackFrameVariables) All() []StackFrameVariable {
	out := make([]StackFrameVariable, 0, len(s.vars))
	for _, n := range s.Names() {
		out = append(out, s.vars[n])
	}
	return out
}

// Update replaces the snapshot with layer and returns what changed.
func (s *StackFrameVariables) Update(layer agent.ScopeMap) VariablesDelta {
	next := fromScopeMap(layer)
	delta := newVariablesDelta()
	for name, old := range s.vars {
		v, ok := next[name]
		switch {
		case !ok:
			delta.removed[name] = struct{}{}
		case v.Scope != old.Scope || v.Type != old.Type || !reflect.DeepEqual(v.Value, old.Value):
			delta.changed[name] = struct{}{}
		default:
			delta.unchanged[name] = struct{}{}
		}
	}
	for name := range next {
		if _, ok := s.vars[name]; !ok {
			delta.added[name] = struct{}{}
		}
	}
	s.vars = next
	return delta
}

// VariablesDelta tells what happened to each variable during an update.
type VariablesDelta struct {
	added     map[string]struct{}
	removed   map[string]struct{}
	changed   map[string]struct{}
	unchanged map[string]struct{}
}

func newVariablesDelta() VariablesDelta {
	return VariablesDelta{
		added:     map[string]struct{}{},
		removed:   map[string]struct{}{},
		changed:   map[string]struct{}{},
		unchanged: map[string]struct{}{},
	}
}

func (d VariablesDelta) IsAdded(name string) bool { return has(d.added, name) }
func (d VariablesDelta) IsRemoved(name string) bool { return has(d.removed, name) }
func (d VariablesDelta) IsChanged(name string) bool { return has(d.changed, name) }
func (d VariablesDelta) IsUnchanged(name string) bool { return has(d.unchanged, name) }

func has(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}
