// Package patch models partial updates where a field can be absent, set to a
// value, or explicitly set to null.
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value decoded from a JSON body. A key missing from the
// body leaves Field zero (not Present). A JSON null yields Present with Null.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Null returns a Field explicitly cleared by the caller.
func Null[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

// HasValue reports whether the field was supplied with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Present && !f.Null
}

// Ptr returns nil for an explicit null and a pointer to the value otherwise.
// Callers must check Present first.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON renders absent and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Present || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
