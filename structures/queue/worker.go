package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrWorkerStarted = errors.New("worker already started")
	ErrWorkerStopped = errors.New("worker stopped")
)

// Worker processes submitted items with a callback on a single dedicated goroutine.
// Items are handled in submission order, and the callback is never called concurrently with itself.
//
// This is useful for a component that needs to do blocking work (I/O, slow computation) in response to input,
// without blocking the caller that hands it the input.
//
// There's no finalizer here, so whatever owns a Worker is responsible for calling [Worker.Stop] when it's done with it.
type Worker[T any] struct {
	callback func(T)
	logger   *slog.Logger
	metrics  *workerMetrics

	mux     sync.Mutex
	cond    *sync.Cond
	tasks   *Queue[T]
	started bool
	quit    bool
	drain   bool
	done    chan struct{}
}

type workerConfig struct {
	logger    *slog.Logger
	registry  prometheus.Registerer
	namespace string
	name      string
}

type WorkerOption func(conf *workerConfig) error

// WorkerLogger sets the logger used to report recovered callback panics.
// [slog.Default] is used if this option is not given.
func WorkerLogger(logger *slog.Logger) WorkerOption {
	return func(conf *workerConfig) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		conf.logger = logger
		return nil
	}
}

// WorkerMetrics registers the Worker's metrics with the given registerer.
// The name is used as a constant "worker" label so multiple workers can share a registry.
func WorkerMetrics(registry prometheus.Registerer, namespace, name string) WorkerOption {
	return func(conf *workerConfig) error {
		if registry == nil {
			return errors.New("nil metrics registerer")
		}
		if len(name) == 0 {
			return errors.New("worker metrics require a name")
		}
		conf.registry = registry
		conf.namespace = namespace
		conf.name = name
		return nil
	}
}

// NewWorker creates a [Worker] that passes each submitted item to callback.
// The Worker doesn't process anything until [Worker.Start] is called.
func NewWorker[T any](callback func(T), opts ...WorkerOption) (*Worker[T], error) {
	if callback == nil {
		return nil, errors.New("nil worker callback")
	}
	conf := &workerConfig{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	w := &Worker[T]{
		callback: callback,
		logger:   conf.logger,
		tasks:    NewQueue[T](),
		done:     make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mux)
	if conf.registry != nil {
		metrics, err := newWorkerMetrics(conf.registry, conf.namespace, conf.name)
		if err != nil {
			return nil, err
		}
		w.metrics = metrics
	}
	return w, nil
}

// Submit queues an item for processing and wakes the worker goroutine.
// Items may be submitted before [Worker.Start], and they'll be processed once it's started.
// Submitting after [Worker.Stop] returns [ErrWorkerStopped].
func (w *Worker[T]) Submit(item T) error {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.quit {
		return ErrWorkerStopped
	}
	w.tasks.Push(item)
	w.metrics.submitted(w.tasks.Len())
	w.cond.Signal()
	return nil
}

// Start creates the worker goroutine.
// A Worker can only be started once, and a stopped Worker can't be started again.
func (w *Worker[T]) Start() error {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.quit {
		return ErrWorkerStopped
	}
	if w.started {
		return ErrWorkerStarted
	}
	w.started = true
	go w.run()
	return nil
}

func (w *Worker[T]) run() {
	defer close(w.done)
	for {
		w.mux.Lock()
		for w.tasks.Len() == 0 && !w.quit {
			w.cond.Wait()
		}
		if w.quit && (!w.drain || w.tasks.Len() == 0) {
			w.mux.Unlock()
			return
		}
		item, _ := w.tasks.Pop()
		w.metrics.depth(w.tasks.Len())
		w.mux.Unlock()
		w.handle(item)
	}
}

func (w *Worker[T]) handle(item T) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.panicked()
			w.logger.Error("Recovered panic in worker callback", "panic", fmt.Sprint(r))
			return
		}
		w.metrics.processed()
	}()
	w.callback(item)
}

// Stop signals the worker goroutine to exit and waits for it to finish the item it's currently handling, if any.
// Items still queued are discarded, see [Worker.Len].
// This is safe to call multiple times, from multiple goroutines, and before [Worker.Start].
// It must not be called from the callback, since it would wait on itself.
func (w *Worker[T]) Stop() {
	w.stop(false)
}

// StopAndDrain is like [Worker.Stop], except that items already queued are handled before the worker goroutine exits.
// New submissions are rejected right away.
// A Worker that was never started has nothing to drain with, so its queued items are discarded.
func (w *Worker[T]) StopAndDrain() {
	w.stop(true)
}

func (w *Worker[T]) stop(drain bool) {
	w.mux.Lock()
	w.quit = true
	w.drain = w.drain || drain
	started := w.started
	w.cond.Broadcast()
	w.mux.Unlock()
	if started {
		<-w.done
	}
}

// Logger returns the logger the Worker was configured with.
func (w *Worker[T]) Logger() *slog.Logger {
	return w.logger
}

// Len reports how many items are waiting to be processed.
func (w *Worker[T]) Len() int {
	return w.tasks.Len()
}
