package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBound is returned when a name has no binding in the registry.
	ErrNotBound = errors.New("name not bound")

	// ErrAlreadyBound is returned by Bind when the name is taken.
	ErrAlreadyBound = errors.New("name already bound")

	// ErrNotLocal is returned when LocateOrCreate would have to create the
	// registry on a remote host, which is not permitted.
	ErrNotLocal = errors.New("registry can only be created on the local host")
)

// RegistryAccessError reports a naming-registry network or permission
// failure. It is surfaced to the caller of the registration or lookup
// operation and never corrupts producer state.
type RegistryAccessError struct {
	Op   string // "lookup", "bind", "rebind", "unbind", "create"
	Name string // bound name, if any
	Err  error
}

// Error implements the error interface.
func (e *RegistryAccessError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("registry %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("registry %s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistryAccessError) Unwrap() error {
	return e.Err
}
