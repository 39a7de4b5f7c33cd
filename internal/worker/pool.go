// Package worker provides a generic concurrent worker pool for fan-out/fan-in
// derivation. The analyze, report and serve paths use it to compute metrics
// for many pull requests at once while keeping results in input order.
package worker

import (
	"runtime"
	"sync"
)

// Result pairs a processed value with its original index to preserve ordering.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool fans out work items to a fixed number of goroutine workers
// and collects results preserving the original input order.
type Pool[In, Out any] struct {
	concurrency int
}

// NewPool creates a worker pool with the given concurrency.
// If concurrency <= 0, defaults to runtime.NumCPU().
func NewPool[In, Out any](concurrency int) *Pool[In, Out] {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pool[In, Out]{concurrency: concurrency}
}

// Concurrency returns the configured worker count.
func (p *Pool[In, Out]) Concurrency() int {
	return p.concurrency
}

// Process distributes items across workers, applies fn to each, and returns
// results in the same order as the input slice. Errors from individual items
// are captured per-result rather than aborting the whole batch.
func (p *Pool[In, Out]) Process(items []In, fn func(In) (Out, error)) []Result[Out] {
	if len(items) == 0 {
		return nil
	}

	workers := min(p.concurrency, len(items))

	jobs := make(chan int, len(items))
	results := make([]Result[Out], len(items))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				val, err := fn(items[idx])
				results[idx] = Result[Out]{Index: idx, Value: val, Err: err}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// Map is Process for functions that cannot fail. It returns bare values in
// input order.
func (p *Pool[In, Out]) Map(items []In, fn func(In) Out) []Out {
	results := p.Process(items, func(item In) (Out, error) {
		return fn(item), nil
	})

	out := make([]Out, len(results))
	for i, r := range results {
		out[i] = r.Value
	}
	return out
}
