package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dynErrors "github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

func TestParallelizeCoversEveryIndex(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000} {
		seen := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "items=%d index=%d", items, i)
		}
	}
}

func TestParallelizeNSequential(t *testing.T) {
	calls := 0
	ParallelizeN(10, 1, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestParallelizeWithThreshold(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(50, 100, func(start, end int) {
		calls++
	})
	assert.Equal(t, 1, calls)
}

func TestForEachReturnsLowestIndexError(t *testing.T) {
	errLow := errors.New("low")
	errHigh := errors.New("high")

	err := ForEach(20, 4, func(i int) error {
		switch i {
		case 3:
			return errLow
		case 17:
			return errHigh
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, errLow, err)

	assert.NoError(t, ForEach(5, 8, func(i int) error { return nil }))
}

func TestForEachRecoversPanics(t *testing.T) {
	for _, workers := range []int{1, 4} {
		var done int32
		err := ForEach(8, workers, func(i int) error {
			if i == 5 {
				var m map[string]int
				m["boom"] = 1
			}
			atomic.AddInt32(&done, 1)
			return nil
		})
		require.Error(t, err, "workers=%d", workers)

		var panicErr *dynErrors.PanicError
		require.True(t, errors.As(err, &panicErr), "workers=%d", workers)
		assert.Contains(t, panicErr.Operation, "[5]")
		assert.Equal(t, int32(7), atomic.LoadInt32(&done))
	}
}
