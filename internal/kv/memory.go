package kv

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-process Medium. It supports fault injection so callers
// can exercise storage failures deterministically.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]string
	failGet error
	failSet error
	sets    int
}

// NewMemory returns an empty Memory medium.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Medium.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failGet != nil {
		return "", false, m.failGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Medium.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value
	m.sets++
	return nil
}

// Keys implements Lister.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := []string{}
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// FailSets makes every subsequent Set return err. A nil err heals.
func (m *Memory) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

// FailGets makes every subsequent Get return err. A nil err heals.
func (m *Memory) FailGets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = err
}

// Put writes a raw value, bypassing injected failures.
func (m *Memory) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Raw returns the stored value, bypassing injected failures.
func (m *Memory) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// SetCount returns the number of successful Set calls.
func (m *Memory) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
