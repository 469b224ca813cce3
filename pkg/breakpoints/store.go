package breakpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/nokia/red-debugger/pkg/agent"
	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/model"
)

// SchemaID is the identifier of the breakpoints file schema.
const SchemaID = "https://github.com/nokia/red-debugger/schemas/breakpoints-v1.json"

// File is the document stored in a breakpoints file.
type File struct {
	Breakpoints []Definition `yaml:"breakpoints" json:"breakpoints"`
}

type location struct {
	uri  string
	line int
}

// Store holds breakpoints by file URI and line. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	points map[location]*LineBreakpoint
	logger *slog.Logger
}

var _ debug.BreakpointSupplier = (*Store)(nil)

// NewStore creates an empty store. A nil logger uses slog.Default().
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{points: map[location]*LineBreakpoint{}, logger: logger}
}

// Add places a breakpoint, replacing the one on the same line.
func (s *Store) Add(def Definition) *LineBreakpoint {
	b := New(def, s.logger)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[location{agent.ToFileURI(def.Path), def.Line}] = b
	return b
}

// Remove deletes the breakpoint at path and line.
func (s *Store) Remove(path string, line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := location{agent.ToFileURI(path), line}
	_, ok := s.points[loc]
	delete(s.points, loc)
	return ok
}

func (s *Store) BreakpointAt(uri string, line int) (debug.LineBreakpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.points[location{uri, line}]
	if !ok {
		return nil, false
	}
	return b, true
}

// All returns the breakpoints ordered by path and line.
func (s *Store) All() []*LineBreakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LineBreakpoint, 0, len(s.points))
	for _, b := range s.points {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// ResetHits forgets the hits of every breakpoint.
func (s *Store) ResetHits() {
	for _, b := range s.All() {
		b.ResetHits()
	}
}

// Len returns the number of breakpoints.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Load decodes a breakpoints document. Unknown fields are rejected.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode breakpoints: %w", err)
	}
	return &f, nil
}

// LoadStore reads and validates the breakpoints file at path.
func LoadStore(path string, logger *slog.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read breakpoints: %w", err)
	}
	f, verrs := Validate(data)
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("invalid breakpoints file %s: %w", path, errors.Join(errs...))
	}
	s := NewStore(logger)
	for _, def := range f.Breakpoints {
		s.Add(def)
	}
	return s, nil
}

// GenerateJSONSchema produces the JSON Schema of breakpoints files.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&File{})
	s.ID = SchemaID
	s.Title = "RED debugger breakpoints v1"
	s.Description = "Schema for files listing the line breakpoints of a debug session"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Validate checks a breakpoints document: strict decoding, the JSON Schema,
// then duplicate lines and hit conditions. Nil means valid.
func Validate(data []byte) (*File, []*model.ValidationError) {
	f, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, []*model.ValidationError{{Phase: "structural", Message: err.Error()}}
	}
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return f, []*model.ValidationError{{Phase: "semantic", Message: err.Error()}}
	}
	errs := model.ValidateAgainstSchema(schemaJSON, "breakpoints-v1.json", f)

	seen := map[location]bool{}
	for i, def := range f.Breakpoints {
		p := fmt.Sprintf("breakpoints/%d", i)
		loc := location{agent.ToFileURI(def.Path), def.Line}
		if seen[loc] {
			errs = append(errs, &model.ValidationError{Phase: "domain", Path: p, Message: fmt.Sprintf("duplicate breakpoint at %s:%d", def.Path, def.Line)})
		}
		seen[loc] = true
		if def.HitCondition != "" {
			if _, err := compileHitCondition(def.HitCondition); err != nil {
				errs = append(errs, &model.ValidationError{Phase: "domain", Path: p + "/hit_condition", Message: err.Error()})
			}
		}
	}
	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}
