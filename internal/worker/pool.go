// Package worker runs batches of independent jobs with bounded concurrency.
package worker

import (
	"context"
	"sync"
)

// Result pairs an input with the outcome of processing it.
type Result[In, Out any] struct {
	Input In
	Value Out
	Err   error
}

// Run applies fn to every input using at most size goroutines and returns the
// results in input order. Inputs that were not started before ctx ended carry
// ctx.Err().
func Run[In, Out any](ctx context.Context, size int, inputs []In, fn func(context.Context, In) (Out, error)) []Result[In, Out] {
	if size < 1 {
		size = 1
	}
	size = min(size, len(inputs))

	results := make([]Result[In, Out], len(inputs))
	for i, in := range inputs {
		results[i].Input = in
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range size {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each index is written by exactly one worker.
				results[i].Value, results[i].Err = fn(ctx, results[i].Input)
			}
		}()
	}

	next := 0
feed:
	for ; next < len(inputs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		results[i].Err = ctx.Err()
	}
	return results
}
