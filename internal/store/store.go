package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/roach88/fieldsync/internal/kv"
)

// RecordType selects which SubmissionLog a record belongs to.
type RecordType string

// Record types collected by the field application.
const (
	Aggregator      RecordType = "aggregator"
	Farmer          RecordType = "farmer"
	FarmerGroup     RecordType = "farmer-group"
	TrainingSession RecordType = "training-session"
)

// KnownTypes lists the record types in registration order.
var KnownTypes = []RecordType{Aggregator, FarmerGroup, Farmer, TrainingSession}

var recordTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks that t is usable as a log namespace.
func (t RecordType) Validate() error {
	if t == "" {
		return errors.New("record type is empty")
	}
	if !recordTypePattern.MatchString(string(t)) {
		return fmt.Errorf("record type %q must match %s", t, recordTypePattern)
	}
	return nil
}

// DefaultKeyPrefix namespaces submission logs inside a shared medium.
const DefaultKeyPrefix = "submissions:"

// Store is the local submission store.
//
// Thread-safety: Store is safe for concurrent use. Operations on the same
// record type are serialized; operations on different types are not.
type Store struct {
	medium kv.Medium
	prefix string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[RecordType]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix. Two stores sharing a medium must
// use different prefixes.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store over medium. The store owns only keys that start with
// its prefix; other keys in the medium are never read or written.
func New(medium kv.Medium, opts ...Option) *Store {
	s := &Store{
		medium: medium,
		prefix: DefaultKeyPrefix,
		locks:  make(map[RecordType]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Key returns the medium key holding the log for t.
func (s *Store) Key(t RecordType) string {
	return s.prefix + string(t)
}

// lockFor returns the mutex serializing access to t's log.
func (s *Store) lockFor(t RecordType) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[t]
	if !ok {
		l = &sync.Mutex{}
		s.locks[t] = l
	}
	return l
}

// RecordTypes returns the record types that have a stored log, in ascending
// order. The medium must implement kv.Lister.
func (s *Store) RecordTypes(ctx context.Context) ([]RecordType, error) {
	lister, ok := s.medium.(kv.Lister)
	if !ok {
		return nil, newError(KindIoFailure, OpList, "", errors.New("medium cannot enumerate keys"))
	}
	keys, err := lister.Keys(ctx, s.prefix)
	if err != nil {
		return nil, newError(KindIoFailure, OpList, "", err)
	}
	types := make([]RecordType, 0, len(keys))
	for _, k := range keys {
		types = append(types, RecordType(strings.TrimPrefix(k, s.prefix)))
	}
	return types, nil
}
