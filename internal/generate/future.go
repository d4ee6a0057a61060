package generate

import (
	"context"
	"sync"
)

// future is a one-shot container for an asynchronously computed value. A
// directory's future is composed from its children's futures; joining happens
// on plain goroutines, never by blocking a compute-pool worker.
type future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

// complete resolves the future. Only the first call has any effect.
func (f *future[T]) complete(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// wait blocks until the future resolves or the context is cancelled.
func (f *future[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// join blocks until the future resolves.
func (f *future[T]) join() (T, error) {
	<-f.done
	return f.value, f.err
}
