package model

import "encoding/json"

// Opt is an optional value used by partial updates. The zero Opt is unset
// and is omitted from JSON (with the omitzero tag). A set Opt is applied even
// when its value is empty, so Set[*string](nil) clears a reference.
type Opt[T any] struct {
	set   bool
	value T
}

// Set returns an Opt carrying v.
func Set[T any](v T) Opt[T] {
	return Opt[T]{set: true, value: v}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// IsZero lets encoding/json omit unset values.
func (o Opt[T]) IsZero() bool {
	return !o.set
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.value)
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.set = true
	o.value = v
	return nil
}

// apply assigns the value to dst when set.
func (o Opt[T]) apply(dst *T) {
	if o.set {
		*dst = o.value
	}
}
