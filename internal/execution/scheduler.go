package execution

import (
	"context"

	"mrt/internal/domain"
)

// Strategy schedules n independent work items
type Strategy interface {
	// Execute calls work once for every index in [0, n) and returns when all calls have returned
	Execute(ctx context.Context, n int, work func(ctx context.Context, i int))
	// Workers is the number of items that may run at once
	Workers() int
}

// NewStrategy returns the strategy for order. workers is ignored for sequential runs.
func NewStrategy(order domain.TestOrder, workers int) Strategy {
	if order == domain.Parallel {
		return NewWorkerPool(workers)
	}
	return SequentialStrategy{}
}

// SequentialStrategy runs items one after another, in index order, on the caller's goroutine
type SequentialStrategy struct{}

// Execute runs every item in order
func (SequentialStrategy) Execute(ctx context.Context, n int, work func(ctx context.Context, i int)) {
	for i := 0; i < n; i++ {
		work(ctx, i)
	}
}

// Workers always returns 1
func (SequentialStrategy) Workers() int {
	return 1
}
