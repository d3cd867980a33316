package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Equal reports whether a and b are deeply equal. Int and Float are distinct
// kinds: Int(5) does not equal Float(5).
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// KeyEqual compares a stored field value against a lookup key.
// Strings match when their NFC normalizations are identical; other kinds
// fall back to Equal.
func KeyEqual(stored, key Value) bool {
	s, ok := stored.(String)
	k, kok := key.(String)
	if ok && kok {
		return norm.NFC.String(string(s)) == norm.NFC.String(string(k))
	}
	return Equal(stored, key)
}

// Normalize returns a copy of v with every string and object key in NFC.
func Normalize(v Value) Value {
	switch val := v.(type) {
	case String:
		return String(norm.NFC.String(string(val)))
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			out[norm.NFC.String(k)] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}

// digestDomain separates record digests from any other hash of the same bytes.
const digestDomain = "fieldsync/record/v1"

// Digest returns a hex SHA-256 over the normalized canonical JSON of r.
// Records that differ only in Unicode normalization share a digest.
func Digest(r Record) (string, error) {
	data, err := MarshalValue(Normalize(r))
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
