package boxes

import (
	"github.com/saylorsolutions/mosaic/pipeline"
)

var _ pipeline.Box = (*Transform[int, string])(nil)

// Transform produces the result of applying a function to each value it receives.
// Since it runs on the dispatch goroutine, the function should be quick.
type Transform[In, Out any] struct {
	pipeline.Base
	In  *pipeline.Consumer[In]
	Out *pipeline.Producer[Out]
}

// NewTransform creates a [Transform] that applies fn.
// If fn returns an error, the pipeline fails with it.
func NewTransform[In, Out any](fn func(In) (Out, error)) *Transform[In, Out] {
	if fn == nil {
		panic("nil transform function")
	}
	t := new(Transform[In, Out])
	t.In = pipeline.NewConsumer(t, func(val In) error {
		out, err := fn(val)
		if err != nil {
			return err
		}
		return t.Out.Produce(out)
	})
	t.Out = pipeline.NewProducer[Out](t)
	return t
}

// Map is a convenience for a [Transform] that can't fail.
func Map[In, Out any](fn func(In) Out) *Transform[In, Out] {
	if fn == nil {
		panic("nil map function")
	}
	return NewTransform(func(val In) (Out, error) {
		return fn(val), nil
	})
}
