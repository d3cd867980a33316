package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure. All assertions run; evaluation does not stop at the first
// failure.
func EvaluateAssertions(ctx context.Context, st *store.Store, result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(ctx, st, result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(ctx context.Context, st *store.Store, result *Result, a Assertion) error {
	switch a.Type {
	case AssertLogEquals:
		return assertLogEquals(ctx, st, a)
	case AssertLogCount:
		return assertLogCount(ctx, st, a)
	case AssertExists:
		return assertExists(ctx, st, a)
	case AssertErrorKind:
		return assertErrorKind(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertLogEquals(ctx context.Context, st *store.Store, a Assertion) error {
	log, err := st.ListAll(ctx, store.RecordType(a.RecordType))
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "readable log", Actual: err.Error()}
	}

	want := make([]record.Record, len(a.Records))
	for i, m := range a.Records {
		rec, err := record.RecordFromMap(m)
		if err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
		want[i] = rec
	}

	if len(log) != len(want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d records", len(want)),
			Actual:   fmt.Sprintf("%d records", len(log)),
		}
	}
	for i := range want {
		if !record.Equal(want[i], log[i]) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("record %d = %s", i, canonical(want[i])),
				Actual:   canonical(log[i]),
			}
		}
	}
	return nil
}

func assertLogCount(ctx context.Context, st *store.Store, a Assertion) error {
	n, err := st.Count(ctx, store.RecordType(a.RecordType))
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "readable log", Actual: err.Error()}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d records in %s", *a.Count, a.RecordType),
			Actual:   fmt.Sprintf("%d records", n),
		}
	}
	return nil
}

func assertExists(ctx context.Context, st *store.Store, a Assertion) error {
	value, err := record.FromAny(a.Value)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	want := true
	if a.Expect != nil {
		want = *a.Expect
	}

	got, err := st.ExistsWithKey(ctx, store.RecordType(a.RecordType), a.Field, value)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "readable log", Actual: err.Error()}
	}
	if got != want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("exists(%s.%s = %s) == %t", a.RecordType, a.Field, canonical(value), want),
			Actual:   fmt.Sprintf("%t", got),
		}
	}
	return nil
}

func assertErrorKind(result *Result, a Assertion) error {
	idx := *a.Step
	if idx >= len(result.Steps) {
		return fmt.Errorf("step %d did not run", idx)
	}
	want := a.Kind
	if want == "" {
		want = KindOK
	}
	got := result.Steps[idx].Kind
	if got != want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("step %d (%s) ends with %s", idx, result.Steps[idx].Op, want),
			Actual:   fmt.Sprintf("%s %s", got, result.Steps[idx].Error),
		}
	}
	return nil
}

func canonical(v record.Value) string {
	data, err := record.MarshalValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
