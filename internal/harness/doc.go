// Package harness runs YAML scenarios against a submission store.
//
// A scenario is a list of steps applied to a fresh in-memory store, followed
// by assertions on the resulting logs and on how each step ended.
//
// # Scenario Format
//
//	name: unique_aggregator
//	description: "A repeated aggregator name is rejected"
//	steps:
//	  - op: submit
//	    record_type: aggregator
//	    form: { aggregatorName: Acme, ... }
//	  - op: fail_writes
//	    message: disk full
//	  - op: append
//	    record_type: farmer
//	    record: { name: Achieng }
//	assertions:
//	  - type: log_count
//	    record_type: aggregator
//	    count: 1
//	  - type: error_kind
//	    step: 2
//	    kind: IO_FAILURE
//
// # Steps
//
//   - append: Store.Append of record
//   - concurrent_append: every entry of records appended from its own goroutine
//   - submit: the form workflow for form, without a remote API
//   - fail_writes / fail_reads: inject a medium failure with message
//   - heal: clear injected failures
//   - corrupt: overwrite the log of record_type with raw
//
// # Assertions
//
//   - log_equals: the log of record_type is exactly records
//   - log_count: the log of record_type has count records
//   - exists: ExistsWithKey(record_type, field, value) returns expect (default true)
//   - error_kind: step ended with kind ("" or "OK" for success)
//
// # Deterministic Testing
//
// Submission IDs come from testutil.SequenceGenerator and times from
// testutil.FixedClock starting at testutil.Epoch, so a scenario without
// concurrent steps produces byte-identical snapshots for golden comparison.
package harness
