package event

// Kind is a named identifier for a class of event, carrying the schema its
// payloads are validated against at fire time.
//
// Kinds are immutable. Create them once, typically as package-level
// variables, and reuse the same instance everywhere: in-process subscription
// identity is the *Kind instance, not the name string. Two Kinds built from
// the same name are distinct subscription keys.
type Kind struct {
	name   string
	schema *PayloadSchema
}

// NewKind creates a Kind. The name must be non-empty and schema non-nil;
// use NoPayload or AnyPayload for kinds without a concrete field list.
func NewKind(name string, schema *PayloadSchema) (*Kind, error) {
	if name == "" {
		return nil, &InvalidSchemaError{Message: "kind name must not be empty"}
	}
	if schema == nil {
		return nil, &InvalidSchemaError{Name: name, Message: "kind requires a payload schema"}
	}
	return &Kind{name: name, schema: schema}, nil
}

// MustKind is like NewKind but panics on error. Intended for package-level
// kind constants.
func MustKind(name string, schema *PayloadSchema) *Kind {
	k, err := NewKind(name, schema)
	if err != nil {
		panic(err)
	}
	return k
}

// Name returns the kind's name.
func (k *Kind) Name() string { return k.name }

// Schema returns the kind's payload schema.
func (k *Kind) Schema() *PayloadSchema { return k.schema }

// String implements fmt.Stringer.
func (k *Kind) String() string { return k.name }
