// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a nullable metric or signal value. The zero Value is unknown,
// which is distinct from a known 0.
type Value struct {
	v  float64
	ok bool
}

// Some returns a known value.
func Some(v float64) Value { return Value{v: v, ok: true} }

// None returns an unknown value.
func None() Value { return Value{} }

// Get returns the value and whether it is known.
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// Valid reports whether the value is known.
func (x Value) Valid() bool { return x.ok }

// Or returns the value when known and def otherwise.
func (x Value) Or(def float64) float64 {
	if !x.ok {
		return def
	}
	return x.v
}

// Ptr returns nil for unknown values.
func (x Value) Ptr() *float64 {
	if !x.ok {
		return nil
	}
	v := x.v
	return &v
}

// FromPtr converts a nullable pointer (e.g. a scanned SQL column).
func FromPtr(p *float64) Value {
	if p == nil {
		return None()
	}
	return Some(*p)
}

// MarshalJSON encodes unknown values as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(x.v, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (x *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*x = None()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*x = Some(f)
	return nil
}

// String is used by log fields.
func (x Value) String() string {
	if !x.ok {
		return "null"
	}
	return strconv.FormatFloat(x.v, 'f', 2, 64)
}
