package models

import "encoding/json"

// Field records whether a JSON key was present in a partial update and, if
// so, its value. Absent keys leave the stored value untouched; a present
// null decodes to the zero value of T (nil for pointer types).
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a present field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	return json.Unmarshal(b, &f.Value)
}

// Apply copies the value into dst when the field was present.
func (f Field[T]) Apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}
