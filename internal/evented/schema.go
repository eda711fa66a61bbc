package evented

import (
	"maps"

	"github.com/google/go-cmp/cmp"
)

// Validator checks a candidate value and returns the value to store. Validators may
// normalize (e.g. parse a numeric string) but enumerations never coerce.
type Validator func(v any) (any, error)

// Field declares one recognized field. A nil Validate accepts any value.
// A Fixed field takes its value when the entity is created; later updates may
// only repeat it.
type Field struct {
	Name     string
	Default  any
	Validate Validator
	Fixed    bool
}

// Check validates the complete would-be state of an entity, after field validators
// have run. It must not modify next.
type Check func(next map[string]any) error

// Schema is the immutable set of recognized fields of an entity kind.
type Schema struct {
	fields []Field
	index  map[string]int
	check  Check
}

// NewSchema builds a schema. Field names must be unique and non-empty, and every
// default must pass its own validator.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, schemaError{msg: "empty field name"}
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, schemaError{msg: "duplicate field " + f.Name}
		}
		if f.Validate != nil {
			v, err := f.Validate(f.Default)
			if err != nil {
				return nil, schemaError{msg: "default for " + f.Name + ": " + err.Error()}
			}
			f.Default = v
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is meant for package-level
// schema variables.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithCheck returns a copy of s that runs c after field validation.
func (s *Schema) WithCheck(c Check) *Schema {
	cp := *s
	cp.check = c
	return &cp
}

// Fields returns the recognized field names in declaration order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Has reports whether name is a recognized field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Defaults returns a fresh map holding every field's default.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = f.Default
	}
	return out
}

// apply merges partial over cur and returns the new state without touching cur.
// Recognized fields are validated in declaration order; the first failure wins.
// Unrecognized keys pass through unvalidated. Fixed fields may only change while
// creating.
func (s *Schema) apply(cur, partial map[string]any, creating bool) (map[string]any, error) {
	next := maps.Clone(cur)
	if next == nil {
		next = make(map[string]any, len(partial))
	}
	for _, f := range s.fields {
		v, ok := partial[f.Name]
		if !ok {
			continue
		}
		if f.Validate != nil {
			nv, err := f.Validate(v)
			if err != nil {
				return nil, &ValidationError{Field: f.Name, Reason: err.Error()}
			}
			v = nv
		}
		if f.Fixed && !creating && !cmp.Equal(cur[f.Name], v) {
			return nil, &ValidationError{Field: f.Name, Reason: "cannot be changed"}
		}
		next[f.Name] = v
	}
	for k, v := range partial {
		if !s.Has(k) {
			next[k] = v
		}
	}
	if s.check != nil {
		if err := s.check(next); err != nil {
			if IsValidation(err) {
				return nil, err
			}
			return nil, &ValidationError{Reason: err.Error()}
		}
	}
	return next, nil
}
