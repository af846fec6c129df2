package queue

import (
	"sync"

	"github.com/saylorsolutions/mosaic/syncx"
)

// Queue is a concurrency-safe FIFO queue implementation.
type Queue[T any] struct {
	mux    sync.RWMutex
	values []T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Len gets the length of the Queue
func (q *Queue[T]) Len() int {
	return syncx.RLockFuncT(&q.mux, func() int {
		return len(q.values)
	})
}

// Push will push an item to the tail of the Queue.
func (q *Queue[T]) Push(val T) {
	q.mux.Lock()
	defer q.mux.Unlock()
	q.values = append(q.values, val)
}

// Pop will pop an item from the head of the Queue.
// False will be returned if the Queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mux.Lock()
	defer q.mux.Unlock()
	if len(q.values) == 0 {
		var mt T
		return mt, false
	}
	val := q.values[0]
	var mt T
	q.values[0] = mt
	q.values = q.values[1:]
	return val, true
}

// Drain removes every item from the Queue at once and returns them in FIFO order.
// The Queue is empty afterward, and nil is returned if it was already empty.
func (q *Queue[T]) Drain() []T {
	q.mux.Lock()
	defer q.mux.Unlock()
	if len(q.values) == 0 {
		return nil
	}
	vals := q.values
	q.values = nil
	return vals
}
