package nn

import (
	"sync"
	"sync/atomic"
)

// parallelFor runs fn(0..n-1) on up to workers goroutines. Each index is handed out
// exactly once, so fn may write to disjoint output regions without locking.
func parallelFor(n, workers int, fn func(i int)) {
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	if workers > n {
		workers = n
	}

	var next atomic.Int64
	next.Store(-1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1))
				if i >= n {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
}
