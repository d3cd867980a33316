// Package record defines the value model for submitted form records.
//
// A Record is an opaque mapping from field name to Value. Values form a
// sealed set of types:
//
//   - Null: an unset field (e.g. a geolocation that never resolved)
//   - String, Int, Float, Bool
//   - Array: ordered sequence of values
//   - Object: nested mapping (geo coordinates, name/quantity items)
//
// # Serialization
//
// Records serialize to JSON with sorted object keys. Int and Float stay
// distinct through a round trip: Int values are written without a fraction,
// Float values always carry a fraction or an exponent. Non-finite floats and
// invalid UTF-8 cannot be represented and are rejected by Validate.
//
// # Identity
//
// Digest computes a content hash over the NFC-normalized canonical form, and
// KeyEqual compares values the same way, so canonically equivalent strings
// ("Café" composed vs. decomposed) are treated as the same key.
package record
