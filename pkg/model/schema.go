package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaID is the identifier of the model file schema.
const SchemaID = "https://github.com/nokia/red-debugger/schemas/model-v1.json"

// ValidationError is a single validation failure with its location.
type ValidationError struct {
	Phase   string `json:"phase"` // structural, semantic, domain
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// GenerateJSONSchema produces the JSON Schema of model files.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&File{})
	s.ID = SchemaID
	s.Title = "RED debugger suite model v1"
	s.Description = "Schema for *.model.yaml files describing Robot Framework suites and resources"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Validate checks a model document in three phases: strict decoding, the
// JSON Schema and the model's own rules. Nil means valid.
func Validate(data []byte) (*File, []*ValidationError) {
	f, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, []*ValidationError{{Phase: "structural", Message: err.Error()}}
	}
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return f, []*ValidationError{{Phase: "semantic", Message: err.Error()}}
	}
	errs := ValidateAgainstSchema(schemaJSON, "model-v1.json", f)
	errs = append(errs, validateDomain(f)...)
	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}

// ValidateAgainstSchema validates the JSON form of v against schemaJSON.
func ValidateAgainstSchema(schemaJSON []byte, resource string, v any) []*ValidationError {
	semantic := func(format string, args ...any) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Message: fmt.Sprintf(format, args...)}}
	}

	schemaDoc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return semantic("unmarshal schema: %v", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(resource, schemaDoc); err != nil {
		return semantic("add schema resource: %v", err)
	}
	sch, err := c.Compile(resource)
	if err != nil {
		return semantic("compile schema: %v", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return semantic("marshal for schema validation: %v", err)
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return semantic("unmarshal document: %v", err)
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*sjsonschema.ValidationError)
	if !ok {
		return semantic("%v", err)
	}
	var errs []*ValidationError
	for _, cause := range flattenValidationErrors(ve) {
		errs = append(errs, &ValidationError{
			Phase:   "semantic",
			Path:    strings.Join(cause.InstanceLocation, "/"),
			Message: fmt.Sprintf("%v", cause.ErrorKind),
		})
	}
	return errs
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

func validateDomain(f *File) []*ValidationError {
	var errs []*ValidationError
	seen := make(map[string]bool)
	for i, tc := range f.TestCases {
		p := fmt.Sprintf("test_cases[%d]", i)
		if seen[NormalizeName(tc.Name)] {
			errs = append(errs, &ValidationError{Phase: "domain", Path: p, Message: fmt.Sprintf("duplicate test case %q", tc.Name)})
		}
		seen[NormalizeName(tc.Name)] = true
		errs = append(errs, validateSteps(p+".steps", tc.Steps)...)
	}
	seen = make(map[string]bool)
	for i, kw := range f.Keywords {
		p := fmt.Sprintf("keywords[%d]", i)
		if seen[NormalizeName(kw.Name)] {
			errs = append(errs, &ValidationError{Phase: "domain", Path: p, Message: fmt.Sprintf("duplicate keyword %q", kw.Name)})
		}
		seen[NormalizeName(kw.Name)] = true
		errs = append(errs, validateSteps(p+".steps", kw.Steps)...)
	}
	return errs
}

func validateSteps(p string, steps []Step) []*ValidationError {
	var errs []*ValidationError
	for i, s := range steps {
		sp := fmt.Sprintf("%s[%d]", p, i)
		switch {
		case s.For != nil && s.Keyword != "":
			errs = append(errs, &ValidationError{Phase: "domain", Path: sp, Message: "step cannot both call a keyword and loop"})
		case s.For == nil && strings.TrimSpace(s.Keyword) == "":
			errs = append(errs, &ValidationError{Phase: "domain", Path: sp, Message: "step must call a keyword or loop"})
		case s.For != nil:
			for _, v := range s.For.Variables {
				if !strings.HasPrefix(v, "${") || !strings.HasSuffix(v, "}") {
					errs = append(errs, &ValidationError{Phase: "domain", Path: sp + ".for.variables", Message: fmt.Sprintf("%q is not a scalar variable", v)})
				}
			}
			errs = append(errs, validateSteps(sp+".for.body", s.For.Body)...)
		}
	}
	return errs
}
