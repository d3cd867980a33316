package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// InvalidError reports why a value cannot be stored.
type InvalidError struct {
	// Path locates the offending value, e.g. "commodities[1].name".
	Path   string
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks that v survives a serialization round trip unchanged:
// no nil entries, finite floats, valid UTF-8, bounded nesting.
func Validate(v Value) error {
	return validate(v, "", 0)
}

func validate(v Value, path string, depth int) error {
	if depth > MaxDepth {
		return &InvalidError{Path: path, Reason: fmt.Sprintf("nesting exceeds %d levels", MaxDepth)}
	}
	switch val := v.(type) {
	case nil:
		return &InvalidError{Path: path, Reason: "nil value"}
	case Null, Int, Bool:
		return nil
	case String:
		if !utf8.ValidString(string(val)) {
			return &InvalidError{Path: path, Reason: "string is not valid UTF-8"}
		}
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &InvalidError{Path: path, Reason: fmt.Sprintf("non-finite float %v", f)}
		}
	case Array:
		for i, elem := range val {
			if err := validate(elem, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
				return err
			}
		}
	case Object:
		for _, k := range val.SortedKeys() {
			if !utf8.ValidString(k) {
				return &InvalidError{Path: path, Reason: fmt.Sprintf("key %q is not valid UTF-8", k)}
			}
			if err := validate(val[k], joinPath(path, k), depth+1); err != nil {
				return err
			}
		}
	default:
		return &InvalidError{Path: path, Reason: fmt.Sprintf("unsupported value type %T", v)}
	}
	return nil
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	if strings.ContainsAny(key, ".[]") {
		return parent + "[" + strconv.Quote(key) + "]"
	}
	return parent + "." + key
}
