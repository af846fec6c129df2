package pipeline

import (
	"fmt"
	"time"

	"github.com/saylorsolutions/mosaic/syncx"
)

// flusher lets the dispatch loop treat producers of unrelated value types the same way.
type flusher interface {
	// flush delivers everything buffered so far to connected consumers.
	// Only called from the dispatch loop, without the pipeline lock held.
	flush() error
}

var _ flusher = (*Producer[int])(nil)

// Producer is the capability of a [Box] to send values of type T to connected [Consumer] capabilities.
// A Box may own several, one per output.
type Producer[T any] struct {
	owner     Box
	consumers []*Consumer[T]
	buffered  []T
	queued    bool
}

// NewProducer creates a [Producer] owned by owner.
// Owners usually call this from their constructor, passing themselves.
func NewProducer[T any](owner Box) *Producer[T] {
	if owner == nil {
		panic("nil producer owner")
	}
	return &Producer[T]{owner: owner}
}

// Produce makes val available to every connected [Consumer].
// It may be called from any goroutine, and never waits for consumers to run.
// Values are delivered later on the pipeline's dispatch goroutine, in the order they were produced.
//
// If nothing is connected to this Producer, then val is discarded.
// [ErrUnassociated] is returned if the owning [Box] was never connected to a [Pipeline].
func (p *Producer[T]) Produce(val T) error {
	pl := p.owner.base().Pipeline()
	if pl == nil {
		return ErrUnassociated
	}
	pl.mux.Lock()
	defer pl.mux.Unlock()
	if len(p.consumers) == 0 {
		pl.metrics.dropped()
		return nil
	}
	p.buffered = append(p.buffered, val)
	pl.metrics.produced()
	if !p.queued {
		p.queued = true
		pl.ready.Push(p)
		pl.metrics.readyDepth(pl.ready.Len())
		pl.cond.Signal()
	}
	return nil
}

// Len reports how many values are buffered and waiting to be flushed.
func (p *Producer[T]) Len() int {
	return p.guarded(func() int {
		return len(p.buffered)
	})
}

// Consumers reports how many consumers are connected to this Producer.
func (p *Producer[T]) Consumers() int {
	return p.guarded(func() int {
		return len(p.consumers)
	})
}

// guarded calls fn with the pipeline lock held, if the owner is associated with one.
func (p *Producer[T]) guarded(fn func() int) int {
	pl := p.owner.base().Pipeline()
	if pl == nil {
		return fn()
	}
	return syncx.LockFuncT(&pl.mux, fn)
}

func (p *Producer[T]) flush() error {
	pl := p.owner.base().Pipeline()
	pl.mux.Lock()
	values, consumers := p.buffered, p.consumers
	p.buffered = nil
	p.queued = false
	pl.mux.Unlock()

	var (
		start     = time.Now()
		delivered int
	)
	defer func() {
		pl.metrics.flushed(delivered, time.Since(start))
	}()
	for _, val := range values {
		for _, consumer := range consumers {
			if err := consumer.deliver(val); err != nil {
				return fmt.Errorf("%s (%s): %w", boxName(consumer.owner), consumer.owner.base().ID(), err)
			}
			delivered++
		}
	}
	return nil
}

// Consumer is the capability of a [Box] to receive values of type T.
// A Box may own several, one per input.
type Consumer[T any] struct {
	owner Box
	input func(T) error
}

// NewConsumer creates a [Consumer] owned by owner, that passes each received value to input.
//
// The input function is only ever called on the pipeline's dispatch goroutine, so calls never overlap with each other, even across boxes.
// It should return quickly, since all delivery waits on it.
// It's free to call [Producer.Produce] on the owner's producers, which is how transforming boxes are built.
// Returning an error, or panicking, fails the [Pipeline.Run] call.
func NewConsumer[T any](owner Box, input func(T) error) *Consumer[T] {
	if owner == nil {
		panic("nil consumer owner")
	}
	if input == nil {
		panic("nil consumer input function")
	}
	return &Consumer[T]{owner: owner, input: input}
}

func (c *Consumer[T]) deliver(val T) (err error) {
	defer recoverInto(&err)
	return c.input(val)
}
