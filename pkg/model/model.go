// Package model defines the suite and resource model the debugger matches
// running keywords against, and its strict YAML loading.
package model

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// File describes one .robot suite, __init__.robot or resource file.
type File struct {
	Source    string     `yaml:"source"               json:"source"               jsonschema:"required"`
	Settings  *Settings  `yaml:"settings,omitempty"   json:"settings,omitempty"`
	TestCases []TestCase `yaml:"test_cases,omitempty" json:"test_cases,omitempty"`
	Keywords  []Keyword  `yaml:"keywords,omitempty"   json:"keywords,omitempty"`

	// URI is the file URI of Source, set when the file is loaded into a
	// workspace.
	URI string `yaml:"-" json:"-"`
}

// Settings is the settings table of a file.
type Settings struct {
	SuiteSetup    *Setting `yaml:"suite_setup,omitempty"    json:"suite_setup,omitempty"`
	SuiteTeardown *Setting `yaml:"suite_teardown,omitempty" json:"suite_teardown,omitempty"`
	TestSetup     *Setting `yaml:"test_setup,omitempty"     json:"test_setup,omitempty"`
	TestTeardown  *Setting `yaml:"test_teardown,omitempty"  json:"test_teardown,omitempty"`
	TestTemplate  *Setting `yaml:"test_template,omitempty"  json:"test_template,omitempty"`
}

// Setting is a keyword-calling setting. A declared setting with no call
// is kept, since it hides the settings of parent suites.
type Setting struct {
	Line int      `yaml:"line,omitempty" json:"line,omitempty" jsonschema:"minimum=0"`
	Call []string `yaml:"call,omitempty" json:"call,omitempty"`
}

// Keyword returns the called keyword, or "" for an empty setting.
func (s *Setting) Keyword() string {
	if s == nil || len(s.Call) == 0 {
		return ""
	}
	return strings.TrimSpace(s.Call[0])
}

// TestCase is an entry of the test cases table.
type TestCase struct {
	Name     string   `yaml:"name"               json:"name"               jsonschema:"required,minLength=1"`
	Line     int      `yaml:"line,omitempty"     json:"line,omitempty"     jsonschema:"minimum=0"`
	Setup    *Setting `yaml:"setup,omitempty"    json:"setup,omitempty"`
	Teardown *Setting `yaml:"teardown,omitempty" json:"teardown,omitempty"`
	Template *Setting `yaml:"template,omitempty" json:"template,omitempty"`
	Steps    []Step   `yaml:"steps,omitempty"    json:"steps,omitempty"`
}

// Keyword is a user keyword of the keywords table.
type Keyword struct {
	Name     string   `yaml:"name"               json:"name"               jsonschema:"required,minLength=1"`
	Line     int      `yaml:"line,omitempty"     json:"line,omitempty"     jsonschema:"minimum=0"`
	Teardown *Setting `yaml:"teardown,omitempty" json:"teardown,omitempty"`
	Steps    []Step   `yaml:"steps,omitempty"    json:"steps,omitempty"`
}

// Step is one executable row: a keyword call or a FOR loop.
type Step struct {
	Keyword string   `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Assign  []string `yaml:"assign,omitempty"  json:"assign,omitempty"`
	Args    []string `yaml:"args,omitempty"    json:"args,omitempty"`
	Line    int      `yaml:"line,omitempty"    json:"line,omitempty"    jsonschema:"minimum=0"`
	For     *ForLoop `yaml:"for,omitempty"     json:"for,omitempty"`
}

// IsLoop reports whether the step is a FOR loop.
func (s Step) IsLoop() bool { return s.For != nil }

// LineNumber returns the line of the step.
func (s Step) LineNumber() int {
	if s.For != nil && s.For.Line > 0 {
		return s.For.Line
	}
	return s.Line
}

// ForLoop is a FOR loop header and its body.
type ForLoop struct {
	Variables []string `yaml:"variables"        json:"variables"        jsonschema:"required,minItems=1"`
	Flavor    string   `yaml:"flavor,omitempty" json:"flavor,omitempty" jsonschema:"enum=IN,enum=IN RANGE,enum=IN ZIP,enum=IN ENUMERATE"`
	Values    []string `yaml:"values,omitempty" json:"values,omitempty"`
	Line      int      `yaml:"line,omitempty"   json:"line,omitempty"   jsonschema:"minimum=0"`
	Body      []Step   `yaml:"body,omitempty"   json:"body,omitempty"`
}

// Description renders the loop the way the agent names a running loop,
// e.g. "${x} IN [ 1 | 2 | 3 ]".
func (l *ForLoop) Description() string {
	flavor := l.Flavor
	if flavor == "" {
		flavor = "IN"
	}
	return fmt.Sprintf("%s %s [ %s ]", strings.Join(l.Variables, " | "), flavor, strings.Join(l.Values, " | "))
}

// IsInit reports whether the file is the __init__ file of a directory suite.
func (f *File) IsInit() bool {
	base := strings.ToLower(path.Base(strings.ReplaceAll(f.Source, "\\", "/")))
	return strings.HasPrefix(base, "__init__.")
}

// TestCase returns the test case with the given name.
func (f *File) TestCase(name string) (*TestCase, bool) {
	for i := range f.TestCases {
		if NamesMatch(f.TestCases[i].Name, name) {
			return &f.TestCases[i], true
		}
	}
	return nil, false
}

// Keyword returns the user keyword with the given name.
func (f *File) Keyword(name string) (*Keyword, bool) {
	for i := range f.Keywords {
		if NamesMatch(f.Keywords[i].Name, name) {
			return &f.Keywords[i], true
		}
	}
	return nil, false
}

var nameNoise = strings.NewReplacer(" ", "", "_", "")

// NormalizeName folds a Robot name for comparison: case, spaces and
// underscores are ignored.
func NormalizeName(name string) string {
	return nameNoise.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// NamesMatch compares two Robot names.
func NamesMatch(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// LoadFile parses a model file from disk.
func LoadFile(p string) (*File, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a model from r, rejecting unknown fields.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &f, nil
}
