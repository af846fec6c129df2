/*
Package pipeline provides an in-process dataflow graph, where boxes that produce and consume typed values are connected together and values are delivered by a single dispatch goroutine.

# Design Priorities

  - Delivery should be as deterministic as possible. Every consumer input is called from one goroutine, so no two inputs ever run at the same time, and values from one producer always arrive in the order they were produced.
  - Producing should never wait on consuming. Producers may run on their own goroutines at their own pace.
  - Shutdown should always happen. Every box gets its Stop hook called, even if something panics.
  - Mistakes in wiring should be caught early. Value types are checked by the compiler, and association errors are returned from [Connect].

# Boxes and Capabilities

A [Box] is any type that embeds [Base].
[Base] provides no-op PreStart, Start, and Stop hooks that a Box may override to manage its own goroutines.

A Box gets its inputs and outputs by owning capabilities, passing itself when creating them:

	type Doubler struct {
		pipeline.Base
		In  *pipeline.Consumer[int]
		Out *pipeline.Producer[int]
	}

	func NewDoubler() *Doubler {
		d := new(Doubler)
		d.In = pipeline.NewConsumer(d, func(val int) error {
			return d.Out.Produce(2 * val)
		})
		d.Out = pipeline.NewProducer[int](d)
		return d
	}

A Box may own any number of each, for any value types.

# Wiring

Use [Connect] to send values from a [Producer] to a [Consumer] of the same type.
The first time a Box is connected it's bound to that [Pipeline] for good, and connecting it to a different one returns [ErrAlreadyAssociated].
Lifecycle hooks are called in the order boxes were first connected.

# Running

[Pipeline.Run] calls PreStart on every box, then Start on every box, and then dispatches values until [Pipeline.Stop] is called or its context is cancelled.
After dispatching ends, Stop is called on every box, and Run returns.
[Pipeline.Stop] may be called from anywhere, including a consumer input function or a producer's goroutine.

When [Producer.Produce] is called, the value is buffered and the producer is queued for the dispatch loop.
Each time the dispatch loop wakes, it flushes every queued producer once, delivering each buffered value to every connected consumer in the order they were connected.
A producer with nothing connected discards its values, so unobserved outputs don't grow without bound.

If a consumer input function returns an error or panics, then dispatching ends and the error is returned from [Pipeline.Run], wrapped with [ErrCallbackFailed], after every box has been stopped.

Note that values still buffered when dispatching ends are not delivered.
If everything produced must be seen, then have the last consumer stop the pipeline once it has what it needs.
*/
package pipeline
