package record

import (
	"slices"
)

// Value is a sealed interface over the types a record field may hold.
type Value interface {
	recordValue()
}

// Null is an explicitly unset value. It serializes as JSON null.
type Null struct{}

func (Null) recordValue() {}

// String is a text value.
type String string

func (String) recordValue() {}

// Int is an integral number.
type Int int64

func (Int) recordValue() {}

// Float is a floating point number. Only finite values are valid.
type Float float64

func (Float) recordValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) recordValue() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) recordValue() {}

// Object maps field names to values.
type Object map[string]Value

func (Object) recordValue() {}

// Record is one submitted form's field values.
type Record = Object

// SortedKeys returns the object's keys in ascending byte order.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Field returns the value stored under key, or (nil, false).
func (obj Object) Field(key string) (Value, bool) {
	v, ok := obj[key]
	return v, ok
}

// StringField returns the string stored under key.
// ok is false when the field is absent or not a String.
func (obj Object) StringField(key string) (string, bool) {
	s, ok := obj[key].(String)
	return string(s), ok
}

// Clone returns a deep copy of the object.
func (obj Object) Clone() Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case Object:
		return val.Clone()
	default:
		return v
	}
}

// KindName returns a short, human-readable name for the value's type.
func KindName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}
