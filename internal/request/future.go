package request

import (
	"context"
	"sync"
)

// Future holds a Result that becomes available exactly once.
type Future struct {
	once sync.Once
	done chan struct{}
	res  Result
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete fulfils f. Only the first call has any effect; it reports
// whether this call was the one that did.
func (f *Future) complete(r Result) bool {
	first := false
	f.once.Do(func() {
		f.res = r
		first = true
		close(f.done)
	})
	return first
}

// Done is closed once the Result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result blocks until the Result is available and returns it.
func (f *Future) Result() Result {
	<-f.done
	return f.res
}

// Wait is Result bounded by ctx. It returns ctx.Err() if ctx ends first;
// the request itself keeps its own context.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Then runs fn with the Result on its own goroutine once it is available.
func (f *Future) Then(fn func(Result)) {
	go func() {
		fn(f.Result())
	}()
}
