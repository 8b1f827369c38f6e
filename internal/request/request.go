// Package request runs a storage operation as a single-shot asynchronous
// request that settles exactly once, with either a value or an error.
//
// Awaiting is bounded by the caller's context, so an engine call that never
// returns surfaces as a context error instead of blocking the caller forever.
package request

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Request is one in-flight operation.
type Request[T any] struct {
	id     string
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	val    T
	err    error
}

// Start runs fn in its own goroutine. The context passed to fn is derived
// from ctx and canceled once the request settles or Await gives up.
func Start[T any](ctx context.Context, fn func(context.Context) (T, error)) *Request[T] {
	ctx, cancel := context.WithCancel(ctx)
	r := &Request[T]{
		id:     newID(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer func() {
			if p := recover(); p != nil {
				var zero T
				r.settle(zero, fmt.Errorf("request %s panicked: %v", r.id, p))
			}
		}()
		v, err := fn(ctx)
		r.settle(v, err)
	}()
	return r
}

// ID identifies the request in logs.
func (r *Request[T]) ID() string { return r.id }

// Await blocks until the request settles or ctx is done. When ctx wins, the
// running operation is canceled and ctx.Err() is returned.
func (r *Request[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.val, r.err
	case <-ctx.Done():
		r.cancel()
		var zero T
		return zero, ctx.Err()
	}
}

// settle records the outcome. Only the first call has an effect.
func (r *Request[T]) settle(v T, err error) bool {
	settled := false
	r.once.Do(func() {
		r.val, r.err = v, err
		close(r.done)
		r.cancel()
		settled = true
	})
	return settled
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
