package record

import (
	"encoding/json"
	"fmt"
	"math"
)

// MaxDepth bounds nesting of arrays and objects. Deeper input is treated as
// cyclic or otherwise unserializable.
const MaxDepth = 64

// FromAny converts plain Go values (as produced by encoding/json or
// gopkg.in/yaml.v3 decoding) into a Value.
//
// Supported inputs: nil, Value, string, bool, all integer kinds, float32/64,
// json.Number, []any, []string, map[string]any, map[string]string and
// GeoCoordinate.
func FromAny(v any) (Value, error) {
	return fromAny(v, 0)
}

// RecordFromMap converts a decoded mapping into a Record.
func RecordFromMap(m map[string]any) (Record, error) {
	v, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}

func fromAny(v any, depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("nesting exceeds %d levels", MaxDepth)
	}
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Array:
		return fromAny([]Value(val), depth)
	case Object:
		return fromAny(map[string]Value(val), depth)
	case Value:
		return val, nil
	case []Value:
		arr := make(Array, len(val))
		for i, elem := range val {
			rv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = rv
		}
		return arr, nil
	case map[string]Value:
		obj := make(Object, len(val))
		for k, elem := range val {
			rv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj[k] = rv
		}
		return obj, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return fromUint(val)
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return parseNumber(val)
	case GeoCoordinate:
		return val.Value(), nil
	case *GeoCoordinate:
		if val == nil {
			return Null{}, nil
		}
		return val.Value(), nil
	case []string:
		arr := make(Array, len(val))
		for i, s := range val {
			arr[i] = String(s)
		}
		return arr, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			rv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = rv
		}
		return arr, nil
	case map[string]string:
		obj := make(Object, len(val))
		for k, s := range val {
			obj[k] = String(s)
		}
		return obj, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			rv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj[k] = rv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// ToAny converts a Value into plain Go values: nil, string, int64, float64,
// bool, []any and map[string]any.
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}
