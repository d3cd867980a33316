package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_AdvancesByStep(t *testing.T) {
	clock := NewFixedClock(Epoch, time.Minute)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Minute), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Minute), clock.Peek())
}

func TestFixedClock_ZeroStepFreezes(t *testing.T) {
	clock := NewFixedClock(Epoch, 0)
	assert.Equal(t, clock.Now(), clock.Now())
}

func TestFixedClock_Set(t *testing.T) {
	clock := NewFixedClock(Epoch, time.Second)
	later := Epoch.Add(24 * time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestFixedClock_ConcurrentAccess(t *testing.T) {
	clock := NewFixedClock(Epoch, time.Second)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(n*time.Second), clock.Peek())
}
