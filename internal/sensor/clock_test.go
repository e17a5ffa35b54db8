package sensor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_NextIncrements(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_StartAt(t *testing.T) {
	c := NewClockAt(100)

	assert.Equal(t, int64(100), c.Current())
	assert.Equal(t, int64(101), c.Next())
}

func TestClock_ConcurrentNext(t *testing.T) {
	c := NewClock()

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	seen := make([][]int64, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				seen[g] = append(seen[g], c.Next())
			}
		}(g)
	}
	wg.Wait()

	// All values unique and the clock advanced exactly once per call.
	unique := make(map[int64]bool)
	for _, vals := range seen {
		for _, v := range vals {
			assert.False(t, unique[v], "duplicate seq %d", v)
			unique[v] = true
		}
	}
	assert.Equal(t, int64(goroutines*perGoroutine), c.Current())
}
