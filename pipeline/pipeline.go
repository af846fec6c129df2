package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/saylorsolutions/mosaic/assert"
	"github.com/saylorsolutions/mosaic/structures/queue"
	"github.com/saylorsolutions/mosaic/syncx"
)

// State is a phase in the life of a [Pipeline].
// A Pipeline only ever moves forward through these states.
type State int

const (
	StateIdle     State = iota // StateIdle is a constructed Pipeline that hasn't been run. Boxes may only be connected in this state.
	StateRunning               // StateRunning means boxes have been started and values are being dispatched.
	StateStopping              // StateStopping means a stop was requested, or a callback failed, and dispatching is ending.
	StateStopped               // StateStopped is terminal. Every box has had Stop called.
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Pipeline is a graph of connected boxes, and the scheduler that moves values through it.
//
// All values flow through a single dispatch goroutine, the one calling [Pipeline.Run].
// Producers may run on any goroutine, and only buffer values and signal the dispatch loop.
type Pipeline struct {
	logger  *slog.Logger
	metrics *pipelineMetrics

	// mux guards everything below, plus every connected producer's buffer and consumer list.
	mux           sync.Mutex
	cond          *sync.Cond
	state         State
	stopRequested bool
	boxes         []Box
	ready         *queue.Queue[flusher]
}

// New creates an idle [Pipeline].
func New(opts ...Option) (*Pipeline, error) {
	conf := &config{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	p := &Pipeline{
		logger: conf.logger,
		ready:  queue.NewQueue[flusher](),
	}
	p.cond = sync.NewCond(&p.mux)
	if conf.registry != nil {
		metrics, err := newPipelineMetrics(conf.registry, conf.namespace)
		if err != nil {
			return nil, err
		}
		p.metrics = metrics
	}
	return p, nil
}

// Connect sends values produced by out to in.
// This is a function rather than a method because methods can't have type parameters, but the result is the same: the compiler rejects connecting capabilities of different value types.
//
// Both owning boxes are bound to p if they aren't already.
// If either is bound to a different [Pipeline], then [ErrAlreadyAssociated] is returned and nothing changes.
// Boxes may only be connected while p is idle, otherwise [ErrNotIdle] is returned.
//
// Consumers receive values in the order they were connected to out.
func Connect[T any](p *Pipeline, out *Producer[T], in *Consumer[T]) error {
	if p == nil || out == nil || in == nil {
		return ErrNilCapability
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	if p.state != StateIdle {
		return fmt.Errorf("%w: can't connect boxes in state %s", ErrNotIdle, p.state)
	}
	if err := p.register(out.owner, in.owner); err != nil {
		return err
	}
	out.consumers = append(out.consumers, in)
	p.logger.Debug("Connected boxes",
		"source", boxName(out.owner),
		"source_id", out.owner.base().ID(),
		"destination", boxName(in.owner),
		"destination_id", in.owner.base().ID(),
	)
	return nil
}

// register binds boxes to p, recording each one the first time it's seen.
// Either all boxes are bound, or none are.
// Must be called with p.mux held.
func (p *Pipeline) register(boxes ...Box) error {
	for _, box := range boxes {
		if box.base().associatedElsewhere(p) {
			return fmt.Errorf("%w: %s (%s)", ErrAlreadyAssociated, boxName(box), box.base().ID())
		}
	}
	var added []Box
	for _, box := range boxes {
		newly, err := box.base().associate(p)
		if err != nil {
			// Another pipeline got to it after the check above.
			for _, box := range added {
				box.base().dissociate(p)
			}
			return fmt.Errorf("%w: %s", err, boxName(box))
		}
		if newly {
			added = append(added, box)
		}
	}
	for _, box := range added {
		p.boxes = append(p.boxes, box)
		p.logger.Debug("Registered box", "box", boxName(box), "id", box.base().ID())
	}
	p.metrics.registered(len(p.boxes))
	return nil
}

// Boxes returns every registered [Box] in the order it was first connected.
func (p *Pipeline) Boxes() []Box {
	return syncx.LockFuncT(&p.mux, func() []Box {
		return slices.Clone(p.boxes)
	})
}

// State returns the current [State] of the Pipeline.
func (p *Pipeline) State() State {
	return syncx.LockFuncT(&p.mux, func() State {
		return p.state
	})
}

// RunUntilStopped is the same as calling [Pipeline.Run] with [context.Background].
func (p *Pipeline) RunUntilStopped() error {
	return p.Run(context.Background())
}

// Run starts every box, dispatches produced values until [Pipeline.Stop] is called or ctx is cancelled, then stops every box.
//
// PreStart is called on each box in registration order, then Start on each box in the same order.
// Stop is always called on each box in registration order before Run returns, whether dispatching ended normally or because a callback failed.
//
// If a box callback returns an error or panics, then the returned error wraps [ErrCallbackFailed] and the cause.
// A Pipeline can only be run once, so subsequent calls return [ErrNotIdle].
func (p *Pipeline) Run(ctx context.Context) (err error) {
	p.mux.Lock()
	if p.state != StateIdle {
		state := p.state
		p.mux.Unlock()
		return fmt.Errorf("%w: can't run a pipeline in state %s", ErrNotIdle, state)
	}
	p.setState(StateRunning)
	boxes := slices.Clone(p.boxes)
	p.mux.Unlock()

	if ctx.Done() != nil {
		cancelWatch := context.AfterFunc(ctx, p.Stop)
		defer cancelWatch()
	}
	defer func() {
		stopErr := p.stopBoxes(boxes)
		syncx.LockFunc(&p.mux, func() {
			p.setState(StateStopped)
		})
		err = errors.Join(err, stopErr)
	}()

	if err := p.startBoxes(boxes); err != nil {
		p.Stop()
		p.logger.Error("Box failed to start, stopping pipeline", "error", err)
		return err
	}
	return p.dispatch()
}

// Stop requests that dispatching end.
// It may be called from any goroutine, any number of times, including before [Pipeline.Run] and from within a consumer's input function.
// It doesn't wait for anything to stop.
func (p *Pipeline) Stop() {
	syncx.LockFunc(&p.mux, func() {
		if p.stopRequested {
			return
		}
		p.stopRequested = true
		if p.state == StateRunning {
			p.setState(StateStopping)
		}
		p.cond.Broadcast()
	})
}

// setState must be called with p.mux held.
func (p *Pipeline) setState(state State) {
	p.logger.Debug("Pipeline state change", "from", p.state, "to", state)
	p.state = state
}

func (p *Pipeline) dispatch() error {
	p.mux.Lock()
	defer p.mux.Unlock()
	for !p.stopRequested {
		if p.ready.Len() == 0 {
			p.cond.Wait()
			continue
		}
		ready := p.ready.Drain()
		p.metrics.readyDepth(0)

		p.mux.Unlock()
		err := flushAll(ready)
		p.mux.Lock()

		if err != nil {
			p.stopRequested = true
			p.setState(StateStopping)
			p.logger.Error("Box callback failed, stopping pipeline", "error", err)
			return fmt.Errorf("%w: %w", ErrCallbackFailed, err)
		}
	}
	if p.state == StateRunning {
		// Stop was requested before Run.
		p.setState(StateStopping)
	}
	return nil
}

func flushAll(ready []flusher) error {
	for _, producer := range ready {
		if err := producer.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) startBoxes(boxes []Box) error {
	for _, box := range boxes {
		p.logger.Debug("Pre-starting box", "box", boxName(box), "id", box.base().ID())
		if err := callHook(box.PreStart); err != nil {
			return fmt.Errorf("%w: pre-start %s (%s): %w", ErrCallbackFailed, boxName(box), box.base().ID(), err)
		}
	}
	for _, box := range boxes {
		p.logger.Debug("Starting box", "box", boxName(box), "id", box.base().ID())
		if err := callHook(box.Start); err != nil {
			return fmt.Errorf("%w: start %s (%s): %w", ErrCallbackFailed, boxName(box), box.base().ID(), err)
		}
	}
	return nil
}

// stopBoxes calls Stop on every box, even if some of them panic.
func (p *Pipeline) stopBoxes(boxes []Box) error {
	errs := assert.CollectErrors()
	for _, box := range boxes {
		p.logger.Debug("Stopping box", "box", boxName(box), "id", box.base().ID())
		if err := callHook(box.Stop); err != nil {
			p.logger.Error("Box panicked while stopping", "box", boxName(box), "id", box.base().ID(), "error", err)
			errs.Addf("%w: stop %s (%s): %w", ErrCallbackFailed, boxName(box), box.base().ID(), err)
		}
	}
	return errs.Result()
}

func callHook(hook func()) (err error) {
	defer recoverInto(&err)
	hook()
	return nil
}
