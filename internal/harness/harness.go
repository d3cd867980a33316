package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/fieldsync/internal/forms"
	"github.com/roach88/fieldsync/internal/kv"
	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
	"github.com/roach88/fieldsync/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	mem       *kv.Memory
	store     *store.Store
	submitter *forms.Submitter
	touched   map[store.RecordType]bool
}

// Run executes a scenario against a fresh in-memory store and returns the
// result. An error means the scenario could not be executed; assertion
// failures are reported in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	schema, err := forms.LoadSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load form schema: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := kv.NewMemory()
	st := store.New(mem, store.WithKeyPrefix(scenario.prefix()), store.WithLogger(logger))

	h := &Harness{
		mem:   mem,
		store: st,
		submitter: forms.NewSubmitter(st, schema,
			forms.WithClock(testutil.NewFixedClock(testutil.Epoch, time.Minute)),
			forms.WithIDGenerator(testutil.NewSequenceGenerator("sub")),
			forms.WithLogger(logger),
		),
		touched: make(map[store.RecordType]bool),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		outcome, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Steps = append(result.Steps, outcome)
	}

	// Assertions and the snapshot read through a healed medium.
	mem.FailGets(nil)
	mem.FailSets(nil)

	for _, msg := range EvaluateAssertions(ctx, h.store, result, scenario.Assertions) {
		result.AddError(msg)
	}

	for t := range h.touched {
		result.Logs[t] = h.logState(ctx, t)
	}
	return result, nil
}

// execute runs one step. Store and form failures become the step's outcome;
// only malformed step input is an error.
func (h *Harness) execute(ctx context.Context, step Step) (StepOutcome, error) {
	t := store.RecordType(step.RecordType)
	outcome := StepOutcome{Op: step.Op, RecordType: step.RecordType, Kind: KindOK}
	if t != "" {
		h.touched[t] = true
	}

	var stepErr error
	switch step.Op {
	case OpAppend:
		rec, err := record.RecordFromMap(step.Record)
		if err != nil {
			return outcome, fmt.Errorf("record: %w", err)
		}
		stepErr = h.store.Append(ctx, t, rec)

	case OpConcurrentAppend:
		recs := make([]record.Record, len(step.Records))
		for i, m := range step.Records {
			rec, err := record.RecordFromMap(m)
			if err != nil {
				return outcome, fmt.Errorf("records[%d]: %w", i, err)
			}
			recs[i] = rec
		}
		stepErr = h.appendConcurrently(ctx, t, recs)

	case OpSubmit:
		data, err := json.Marshal(step.Form)
		if err != nil {
			return outcome, fmt.Errorf("form: %w", err)
		}
		f, err := forms.Decode(t, data)
		if err != nil {
			stepErr = err
			break
		}
		_, stepErr = h.submitter.Submit(ctx, f)

	case OpFailWrites:
		h.mem.FailSets(injected(step.Message))
	case OpFailReads:
		h.mem.FailGets(injected(step.Message))
	case OpHeal:
		h.mem.FailSets(nil)
		h.mem.FailGets(nil)
	case OpCorrupt:
		h.mem.Put(h.store.Key(t), *step.Raw)
	}

	if stepErr != nil {
		outcome.Kind = kindOf(stepErr)
		outcome.Error = stepErr.Error()
	}
	return outcome, nil
}

func (h *Harness) appendConcurrently(ctx context.Context, t store.RecordType, recs []record.Record) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for _, rec := range recs {
		wg.Add(1)
		go func(rec record.Record) {
			defer wg.Done()
			if err := h.store.Append(ctx, t, rec); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
			}
		}(rec)
	}
	wg.Wait()
	return first
}

func (h *Harness) logState(ctx context.Context, t store.RecordType) LogState {
	log, err := h.store.ListAll(ctx, t)
	if err != nil {
		raw, _ := h.mem.Raw(h.store.Key(t))
		return LogState{Corrupt: &raw}
	}
	return LogState{Records: log}
}

// touchedTypes returns the touched record types in ascending order.
func (r *Result) touchedTypes() []store.RecordType {
	types := make([]store.RecordType, 0, len(r.Logs))
	for t := range r.Logs {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func injected(msg string) error {
	if msg == "" {
		msg = "injected failure"
	}
	return errors.New(msg)
}

func kindOf(err error) string {
	if k, ok := store.KindOf(err); ok {
		return string(k)
	}
	if forms.IsDuplicateName(err) {
		return KindDuplicateName
	}
	if forms.IsValidation(err) {
		return KindFormValidation
	}
	return "ERROR"
}
