package execution

import (
	"sort"

	"mrt/internal/domain"
)

// Progress is notified as each case settles
type Progress interface {
	Advance(result domain.CaseResult)
	Finish()
}

// Collector gathers case results from any number of goroutines. A single
// goroutine owned by the collector drains the channel.
type Collector struct {
	results   chan domain.CaseResult
	done      chan struct{}
	collected []domain.CaseResult
	progress  Progress
}

// NewCollector starts a collector. progress may be nil.
func NewCollector(buffer int, progress Progress) *Collector {
	c := &Collector{
		results:  make(chan domain.CaseResult, buffer),
		done:     make(chan struct{}),
		progress: progress,
	}
	go c.drain()
	return c
}

func (c *Collector) drain() {
	defer close(c.done)
	for r := range c.results {
		c.collected = append(c.collected, r)
		if c.progress != nil {
			c.progress.Advance(r)
		}
	}
}

// Add submits a result. It must not be called after Close.
func (c *Collector) Add(r domain.CaseResult) {
	c.results <- r
}

// Close waits for every submitted result and returns them in discovery order
func (c *Collector) Close() []domain.CaseResult {
	close(c.results)
	<-c.done
	if c.progress != nil {
		c.progress.Finish()
	}
	sort.SliceStable(c.collected, func(i, j int) bool {
		return c.collected[i].Index < c.collected[j].Index
	})
	return c.collected
}
