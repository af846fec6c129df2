package boxes

import (
	"sync"

	"github.com/saylorsolutions/mosaic/pipeline"
)

var _ pipeline.Box = (*Collector[int])(nil)

// Collector keeps every value it receives.
type Collector[T any] struct {
	pipeline.Base
	In *pipeline.Consumer[T]

	mux     sync.Mutex
	values  []T
	limit   int
	onLimit func()
}

func NewCollector[T any]() *Collector[T] {
	c := new(Collector[T])
	c.In = pipeline.NewConsumer(c, c.input)
	return c
}

// Notify arranges for fn to be called, on the dispatch goroutine, once n values have been collected.
// Calling [pipeline.Pipeline.Stop] from fn is a reliable way to end a run without missing anything.
func (c *Collector[T]) Notify(n int, fn func()) *Collector[T] {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.limit = n
	c.onLimit = fn
	return c
}

func (c *Collector[T]) input(val T) error {
	c.mux.Lock()
	c.values = append(c.values, val)
	notify := c.onLimit != nil && len(c.values) == c.limit
	fn := c.onLimit
	c.mux.Unlock()
	if notify {
		fn()
	}
	return nil
}

// Values returns a copy of everything collected so far, in the order it was received.
func (c *Collector[T]) Values() []T {
	c.mux.Lock()
	defer c.mux.Unlock()
	return append([]T(nil), c.values...)
}
