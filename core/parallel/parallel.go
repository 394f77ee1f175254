package parallel

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// Parallelize divides items into contiguous ranges, one per CPU core, and
// runs fn(start, end) for each range concurrently.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with an explicit worker count.
// workers <= 1 runs fn sequentially on the whole range.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers <= 1 {
		fn(0, items)
		return
	}
	if workers > items {
		workers = items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of
// items exceeds the threshold; otherwise fn runs once over the whole range.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach runs fn for every index in [0, items) using up to workers
// goroutines. Every index is processed; the error of the lowest failing index
// is returned so the outcome does not depend on scheduling. A panic in fn is
// returned as an *errors.PanicError for that index.
func ForEach(items, workers int, fn func(i int) error) error {
	errs := make([]error, items)
	ParallelizeN(items, workers, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = errors.SafeExecute(fmt.Sprintf("parallel.ForEach[%d]", i), func() error {
				return fn(i)
			})
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
