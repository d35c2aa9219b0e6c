package event

import (
	"fmt"
	"reflect"
)

// FieldDescriptor describes one payload position: its name, a human-readable
// description, and the type a payload element at that position must be
// assignable to.
type FieldDescriptor struct {
	Name        string
	Description string
	Type        reflect.Type
}

// Field is a convenience constructor for a FieldDescriptor.
//
// Example:
//
//	event.Field("pressure", "sensor reading in bar", reflect.TypeOf(float64(0)))
func Field(name, description string, typ reflect.Type) FieldDescriptor {
	return FieldDescriptor{Name: name, Description: description, Type: typ}
}

// anyType is the top type; every value is assignable to it.
var anyType = reflect.TypeOf((*any)(nil)).Elem()

// PayloadSchema describes the expected shape of an event payload as an
// ordered list of field descriptors, and validates candidate payloads
// against it. Schemas are immutable after construction and compared
// structurally with Equal.
type PayloadSchema struct {
	name        string
	description string
	fields      []FieldDescriptor
}

// NoPayload is the schema of events that carry no payload at all.
// It accepts only the None payload marker.
var NoPayload = &PayloadSchema{
	name:        "eventwire.none",
	description: "no payload expected",
}

// AnyPayload is the schema-less escape hatch: a single field of the top
// type, accepting every payload.
var AnyPayload = &PayloadSchema{
	name:        "eventwire.any",
	description: "any payload accepted",
	fields: []FieldDescriptor{
		{Name: "value", Description: "arbitrary value", Type: anyType},
	},
}

// NewSchema builds a PayloadSchema from an ordered field list.
// It fails with *InvalidSchemaError when name is empty or any field
// descriptor is the zero value.
func NewSchema(name, description string, fields ...FieldDescriptor) (*PayloadSchema, error) {
	if name == "" {
		return nil, &InvalidSchemaError{Message: "name must not be empty"}
	}
	for i, f := range fields {
		if f.Name == "" || f.Type == nil {
			return nil, &InvalidSchemaError{
				Name:    name,
				Message: fmt.Sprintf("field descriptor %d is missing a name or type", i),
			}
		}
	}
	// Copy so later mutation of the caller's slice cannot reach the schema.
	fs := make([]FieldDescriptor, len(fields))
	copy(fs, fields)
	return &PayloadSchema{name: name, description: description, fields: fs}, nil
}

// MustSchema is like NewSchema but panics on error. Intended for
// package-level schema constants.
func MustSchema(name, description string, fields ...FieldDescriptor) *PayloadSchema {
	s, err := NewSchema(name, description, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *PayloadSchema) Name() string { return s.name }

// Description returns the schema description.
func (s *PayloadSchema) Description() string { return s.description }

// Fields returns a copy of the ordered field descriptors.
func (s *PayloadSchema) Fields() []FieldDescriptor {
	fs := make([]FieldDescriptor, len(s.fields))
	copy(fs, s.fields)
	return fs
}

// Arity returns the number of fields the schema declares.
func (s *PayloadSchema) Arity() int { return len(s.fields) }

// Equal reports structural equality: same name, description, and field list.
func (s *PayloadSchema) Equal(other *PayloadSchema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.name != other.name || s.description != other.description || len(s.fields) != len(other.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

// Validate checks a candidate payload against the schema.
//
// The AnyPayload schema accepts every candidate. A zero-field schema accepts
// only the None marker: an empty-but-present payload is still a payload and
// is rejected. Otherwise the candidate must carry exactly Arity() elements,
// and each element must be assignable to the corresponding field type. A nil
// element is accepted for any field; it stands for "value unknown".
func (s *PayloadSchema) Validate(p Payload) error {
	if s == AnyPayload {
		return nil
	}
	if len(s.fields) == 0 {
		if p.IsNone() {
			return nil
		}
		return &ArityError{Schema: s.name, Want: 0, Got: p.Len()}
	}
	if p.IsNone() {
		return &ArityError{Schema: s.name, Want: len(s.fields), Got: 0}
	}
	if len(p.values) != len(s.fields) {
		return &ArityError{Schema: s.name, Want: len(s.fields), Got: len(p.values)}
	}
	for i, v := range p.values {
		if v == nil {
			continue
		}
		got := reflect.TypeOf(v)
		if !got.AssignableTo(s.fields[i].Type) {
			return &TypeError{
				Schema: s.name,
				Field:  s.fields[i].Name,
				Index:  i,
				Want:   s.fields[i].Type,
				Got:    got,
			}
		}
	}
	return nil
}
