package store

import (
	"context"
	"errors"

	"github.com/roach88/fieldsync/internal/record"
)

// Append adds rec to the end of t's log.
//
// The record and type are validated before any I/O. The existing log is read,
// decoded, extended and written back in one Set while t's lock is held. On
// success the previous contents are preserved and rec is the last element.
//
// Append runs to completion even if ctx is cancelled: once called, the write
// is not abandoned halfway.
func (s *Store) Append(ctx context.Context, t RecordType, rec record.Record) error {
	if err := t.Validate(); err != nil {
		return newError(KindValidation, OpAppend, t, err)
	}
	if rec == nil {
		return newError(KindValidation, OpAppend, t, errors.New("record is nil"))
	}
	if err := record.Validate(rec); err != nil {
		return newError(KindValidation, OpAppend, t, err)
	}

	ctx = context.WithoutCancel(ctx)

	lock := s.lockFor(t)
	lock.Lock()
	defer lock.Unlock()

	log, err := s.load(ctx, OpAppend, t)
	if err != nil {
		return err
	}

	log = append(log, rec)
	data, err := encodeLog(log)
	if err != nil {
		return newError(KindValidation, OpAppend, t, err)
	}

	if err := s.medium.Set(ctx, s.Key(t), data); err != nil {
		s.logger.Warn("append failed", "record_type", t, "error", err)
		return newError(KindIoFailure, OpAppend, t, err)
	}

	s.logger.Debug("record appended", "record_type", t, "length", len(log))
	return nil
}

// AppendAsync runs Append on its own goroutine. The returned channel receives
// exactly one value (nil on success) and is then closed.
func (s *Store) AppendAsync(ctx context.Context, t RecordType, rec record.Record) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Append(ctx, t, rec)
	}()
	return done
}
