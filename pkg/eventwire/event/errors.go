package event

import (
	"fmt"
	"reflect"
)

// InvalidSchemaError reports a malformed PayloadSchema construction.
// The schema is never partially constructed; on error nothing is returned.
type InvalidSchemaError struct {
	Name    string
	Message string
}

// Error implements the error interface.
func (e *InvalidSchemaError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid payload schema: %s", e.Message)
	}
	return fmt.Sprintf("invalid payload schema %q: %s", e.Name, e.Message)
}

// ArityError reports a payload whose element count does not match the schema.
type ArityError struct {
	Schema string
	Want   int
	Got    int
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("schema %q permits no payload, got a payload of %d element(s)", e.Schema, e.Got)
	}
	return fmt.Sprintf("schema %q expects %d payload element(s), got %d", e.Schema, e.Want, e.Got)
}

// TypeError reports a payload element whose runtime type is not assignable
// to the declared field type.
type TypeError struct {
	Schema string
	Field  string
	Index  int
	Want   reflect.Type
	Got    reflect.Type
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("schema %q field %q (index %d) expects %v, got %v",
		e.Schema, e.Field, e.Index, e.Want, e.Got)
}
