package kv

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, m.SetCount())
}

func TestMemory_FailSets(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("quota exceeded")

	require.NoError(t, m.Set(ctx, "k", "before"))
	m.FailSets(boom)

	err := m.Set(ctx, "k", "after")
	assert.ErrorIs(t, err, boom)

	v, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "before", v)

	m.FailSets(nil)
	require.NoError(t, m.Set(ctx, "k", "after"))
}

func TestMemory_FailGets(t *testing.T) {
	m := NewMemory()
	boom := errors.New("storage unavailable")
	m.Put("k", "v")
	m.FailGets(boom)

	_, _, err := m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)

	raw, ok := m.Raw("k")
	assert.True(t, ok)
	assert.Equal(t, "v", raw)
}

func TestMemory_GetHonorsCancellation(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_Keys(t *testing.T) {
	m := NewMemory()
	m.Put("submissions:farmer", "[]")
	m.Put("submissions:aggregator", "[]")
	m.Put("prefs", "{}")

	keys, err := m.Keys(context.Background(), "submissions:")
	require.NoError(t, err)
	assert.Equal(t, []string{"submissions:aggregator", "submissions:farmer"}, keys)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Set(ctx, "k", "v")
			_, _, _ = m.Get(ctx, "k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.SetCount())
}

var _ Medium = (*Memory)(nil)
var _ Lister = (*Memory)(nil)
