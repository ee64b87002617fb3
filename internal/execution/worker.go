package execution

import (
	"context"
	"sync"
)

// WorkerPool runs items on a fixed number of goroutines. The goroutines belong
// to a single Execute call and are gone when it returns.
type WorkerPool struct {
	workers int
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{workers: workers}
}

// Workers returns the pool size
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Execute fans the items out across min(workers, n) goroutines. No ordering between items is guaranteed.
func (wp *WorkerPool) Execute(ctx context.Context, n int, work func(ctx context.Context, i int)) {
	if n == 0 {
		return
	}

	queue := make(chan int, n)
	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)

	workers := min(wp.workers, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				work(ctx, i)
			}
		}()
	}
	wg.Wait()
}
