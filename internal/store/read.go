package store

import (
	"context"

	"github.com/roach88/fieldsync/internal/record"
)

// ListAll returns t's log, oldest first.
//
// Returns an empty slice (not nil) if t has never been appended to.
func (s *Store) ListAll(ctx context.Context, t RecordType) ([]record.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, newError(KindValidation, OpList, t, err)
	}

	lock := s.lockFor(t)
	lock.Lock()
	defer lock.Unlock()

	return s.load(ctx, OpList, t)
}

// Count returns the number of records in t's log.
func (s *Store) Count(ctx context.Context, t RecordType) (int, error) {
	log, err := s.ListAll(ctx, t)
	if err != nil {
		return 0, err
	}
	return len(log), nil
}

// ExistsWithKey reports whether any record in t's log has
// record[keyField] equal to keyValue. Strings are compared after NFC
// normalization.
//
// This only sees records appended on this device.
func (s *Store) ExistsWithKey(ctx context.Context, t RecordType, keyField string, keyValue record.Value) (bool, error) {
	_, found, err := s.find(ctx, OpExists, t, keyField, keyValue)
	return found, err
}

// Find returns the most recent record in t's log whose keyField equals
// keyValue.
func (s *Store) Find(ctx context.Context, t RecordType, keyField string, keyValue record.Value) (record.Record, bool, error) {
	return s.find(ctx, OpFind, t, keyField, keyValue)
}

func (s *Store) find(ctx context.Context, op Op, t RecordType, keyField string, keyValue record.Value) (record.Record, bool, error) {
	if err := t.Validate(); err != nil {
		return nil, false, newError(KindValidation, op, t, err)
	}
	if keyValue == nil {
		keyValue = record.Null{}
	}

	lock := s.lockFor(t)
	lock.Lock()
	defer lock.Unlock()

	log, err := s.load(ctx, op, t)
	if err != nil {
		return nil, false, err
	}

	for i := len(log) - 1; i >= 0; i-- {
		v, ok := log[i][keyField]
		if ok && record.KeyEqual(v, keyValue) {
			return log[i], true, nil
		}
	}
	return nil, false, nil
}

// load reads and decodes t's log. The caller must hold t's lock.
func (s *Store) load(ctx context.Context, op Op, t RecordType) ([]record.Record, error) {
	raw, ok, err := s.medium.Get(ctx, s.Key(t))
	if err != nil {
		return nil, newError(KindIoFailure, op, t, err)
	}
	if !ok {
		return []record.Record{}, nil
	}

	log, err := decodeLog(raw)
	if err != nil {
		s.logger.Error("stored log is corrupt", "record_type", t, "key", s.Key(t), "error", err)
		return nil, newError(KindCorruptLog, op, t, err)
	}
	return log, nil
}
