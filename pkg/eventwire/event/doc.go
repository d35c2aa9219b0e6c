// Package event defines the value objects of the eventwire notification core:
// payload schemas, event kinds, and the immutable events a producer delivers.
//
// A Kind names a class of event and carries the PayloadSchema its payloads
// are validated against. Kinds are created once, typically as package-level
// variables at process start, and never mutated. Within one process two Kinds
// are the same subscription key only if they are the same *Kind instance;
// sharing a name string is not enough. The remote bridge translates to
// name-based identity at the process boundary (see package remote).
//
// Events bind a Kind to a validated payload. Construction goes through the
// validating constructors; once built, an event never changes.
package event
