// Package store provides the local submission store: a durable, append-only
// log of submitted form records, namespaced by record type.
//
// Each record type owns one SubmissionLog, persisted as a JSON array under a
// single key of a kv.Medium. The store implements:
//   - Append: read the log, push one record, write the whole log back
//   - ListAll: the full log in insertion order (oldest first)
//   - ExistsWithKey: local, best-effort uniqueness lookup
//
// # Guarantees
//
// Append-only: nothing in this package edits or removes a stored record.
//
// Serialized writes: read-modify-write for one record type runs under a
// per-type mutex, so concurrent appends never lose updates. Different record
// types proceed independently.
//
// All-or-nothing: the medium's single-key Set is the commit point. A failed
// Set leaves the previous log intact.
//
// Corruption is surfaced, never repaired: a log that does not decode as an
// array of objects fails with CORRUPT_LOG and the stored bytes stay as they
// are.
//
// Uniqueness checks only see records appended on this device; they are not a
// substitute for a server-side constraint.
//
// # Errors
//
// Every failure is a *Error with Kind IO_FAILURE, CORRUPT_LOG or VALIDATION.
// The store never retries; retry policy belongs to the caller.
package store
