// Package workpool runs a function over a list of items with a bounded number
// of goroutines and hands the results back in input order.
package workpool

import (
	"context"
	"runtime"
	"sync"
)

// Resolve maps a requested worker count to an effective one. Zero or negative
// means one worker per available CPU.
func Resolve(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

type job[T any] struct {
	index int
	item  T
}

// Map calls fn for every item on at most workers goroutines. The result at
// index i always belongs to items[i], no matter which worker finished first.
// Items not yet started when ctx is cancelled are skipped and keep the zero
// value.
func Map[T, R any](
	ctx context.Context,
	items []T,
	workers int,
	fn func(ctx context.Context, index int, item T) R,
) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	workers = Resolve(workers)
	if workers > len(items) {
		workers = len(items)
	}

	workChan := make(chan job[T], len(items))
	for i, item := range items {
		workChan <- job[T]{index: i, item: item}
	}
	close(workChan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			for j := range workChan {
				if ctx.Err() != nil {
					continue
				}
				// each worker writes only its own slot
				results[j.index] = fn(ctx, j.index, j.item)
			}
		})
	}
	wg.Wait()

	return results
}
