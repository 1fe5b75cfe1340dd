package cache

import (
	"fmt"

	"github.com/pkg/errors"
)

// Handle joins a query dispatched onto its own goroutine. A panic in
// the task is reported as ErrTaskFailed, distinct from the query
// itself returning an application error.
type Handle[T any] struct {
	done   chan struct{}
	result *T
	err    error
}

var ErrTaskFailed = errors.New("background task failed")

// Spawn runs fn on a new goroutine. The initiator must call Join; the
// goroutine holds no reference to the handle after completion.
func Spawn[T any](fn func() (*T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = errors.Wrap(ErrTaskFailed, fmt.Sprint(r))
			}
		}()
		h.result, h.err = fn()
	}()
	return h
}

// Join blocks until the task finishes and returns its outcome.
func (h *Handle[T]) Join() (*T, error) {
	<-h.done
	return h.result, h.err
}
