package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/remote"
	"github.com/roach88/fieldsync/internal/store"
)

// Remote submits a saved record to the program's API.
type Remote interface {
	Submit(ctx context.Context, t store.RecordType, rec record.Record) remote.Result
}

// Outcome describes a submission that was saved locally.
type Outcome struct {
	RecordType   store.RecordType `json:"recordType"`
	SubmissionID string           `json:"submissionId"`
	Record       record.Record    `json:"record"`

	// Remote is the remote API's answer. It is only meaningful when
	// RemoteAttempted is true; a failed remote call leaves the local record
	// in place.
	Remote          remote.Result `json:"remote"`
	RemoteAttempted bool          `json:"remoteAttempted"`
}

// Submitter runs the submit workflow for filled-in forms.
//
// Thread-safety: Submitter is safe for concurrent use. The uniqueness check
// and the local append run under one lock, so two submissions in the same
// process cannot both claim a name.
type Submitter struct {
	store  *store.Store
	schema *Schema
	remote Remote
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger

	mu sync.Mutex
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithRemote sets the remote client. Without one, records are saved locally
// only.
func WithRemote(r Remote) SubmitterOption {
	return func(s *Submitter) {
		s.remote = r
	}
}

// WithClock sets the clock used for submittedAt and defaulted times.
func WithClock(c Clock) SubmitterOption {
	return func(s *Submitter) {
		s.clock = c
	}
}

// WithIDGenerator sets the submission ID source.
func WithIDGenerator(g IDGenerator) SubmitterOption {
	return func(s *Submitter) {
		s.ids = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// NewSubmitter creates a Submitter saving into st.
func NewSubmitter(st *store.Store, schema *Schema, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		store:  st,
		schema: schema,
		clock:  SystemClock{},
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Build validates f and returns the record that Submit would save, stamped
// with a fresh submission ID and time. Nothing is written.
func (s *Submitter) Build(f Form) (record.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	rec, err := f.Fields(now)
	if err != nil {
		return nil, fmt.Errorf("build %s record: %w", f.RecordType(), err)
	}
	rec["submissionId"] = record.String(s.ids.Generate())
	rec["submittedAt"] = record.String(now.Format(time.RFC3339))

	if err := s.schema.Check(f.RecordType(), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Submit validates f, saves it to the local log and then offers it to the
// remote API.
//
// Any error means nothing was saved and the remote API was not called. A
// nil error means the record is in the local log; the remote outcome is in
// Outcome.Remote and never turns into an error.
func (s *Submitter) Submit(ctx context.Context, f Form) (Outcome, error) {
	t := f.RecordType()
	rec, err := s.Build(f)
	if err != nil {
		s.logger.Debug("form rejected", "record_type", t, "error", err)
		return Outcome{}, err
	}
	id, _ := rec.StringField("submissionId")

	if err := s.save(ctx, f, rec); err != nil {
		return Outcome{}, err
	}
	s.logger.Info("submission saved locally", "record_type", t, "submission_id", id)

	out := Outcome{RecordType: t, SubmissionID: id, Record: rec}
	if s.remote != nil {
		out.Remote = s.remote.Submit(ctx, t, rec)
		out.RemoteAttempted = true
		if out.Remote.Success {
			s.logger.Info("submission accepted by server", "record_type", t, "submission_id", id, "status", out.Remote.StatusCode)
		} else {
			s.logger.Warn("remote submission failed", "record_type", t, "submission_id", id, "error", out.Remote.Error)
		}
	}
	return out, nil
}

func (s *Submitter) save(ctx context.Context, f Form, rec record.Record) error {
	t := f.RecordType()

	s.mu.Lock()
	defer s.mu.Unlock()

	if uk, ok := f.(UniqueKeyed); ok {
		field, value := uk.UniqueKey()
		exists, err := s.store.ExistsWithKey(ctx, t, field, value)
		if err != nil {
			return fmt.Errorf("check %s uniqueness: %w", field, err)
		}
		if exists {
			return fmt.Errorf("%w: %s %q", ErrDuplicateName, field, record.ToAny(value))
		}
	}

	if err := s.store.Append(ctx, t, rec); err != nil {
		s.logger.Error("local save failed", "record_type", t, "error", err)
		return fmt.Errorf("save %s: %w", t, err)
	}
	return nil
}

// Resubmit posts a locally saved record to the remote API again, with the
// same submission ID so the server can discard a duplicate.
func (s *Submitter) Resubmit(ctx context.Context, t store.RecordType, submissionID string) (remote.Result, error) {
	if s.remote == nil {
		return remote.Result{}, ErrNoRemote
	}
	rec, found, err := s.store.Find(ctx, t, "submissionId", record.String(submissionID))
	if err != nil {
		return remote.Result{}, fmt.Errorf("resubmit: %w", err)
	}
	if !found {
		return remote.Result{}, fmt.Errorf("%w: %s %s", ErrNotFound, t, submissionID)
	}

	res := s.remote.Submit(ctx, t, rec)
	if !res.Success {
		s.logger.Warn("resubmission failed", "record_type", t, "submission_id", submissionID, "error", res.Error)
	}
	return res, nil
}

// IsDuplicateName reports whether err is ErrDuplicateName.
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}
