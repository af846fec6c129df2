package boxes

import (
	"sync"
	"time"

	"github.com/saylorsolutions/mosaic/pipeline"
)

var _ pipeline.Box = (*Sequence[int])(nil)

// Sequence produces a fixed list of values on its own goroutine, waiting Interval before each one.
type Sequence[T any] struct {
	pipeline.Base
	Out      *pipeline.Producer[T]
	values   []T
	interval time.Duration
	onDone   func()

	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
	mux      sync.Mutex
	err      error
}

// NewSequence creates a [Sequence] that will produce values once started.
func NewSequence[T any](interval time.Duration, values ...T) *Sequence[T] {
	s := &Sequence[T]{
		values:   values,
		interval: interval,
		quit:     make(chan struct{}),
	}
	s.Out = pipeline.NewProducer[T](s)
	return s
}

// OnDone sets a function to call from the Sequence's goroutine after the last value is produced, and one more interval has passed.
// This is commonly used to stop the pipeline.
// It's not called if the Sequence is stopped early.
func (s *Sequence[T]) OnDone(fn func()) *Sequence[T] {
	s.onDone = fn
	return s
}

func (s *Sequence[T]) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Sequence[T]) run() {
	defer s.wg.Done()
	for _, val := range s.values {
		if !s.wait() {
			return
		}
		if err := s.Out.Produce(val); err != nil {
			s.mux.Lock()
			s.err = err
			s.mux.Unlock()
			return
		}
	}
	if !s.wait() {
		return
	}
	if s.onDone != nil {
		s.onDone()
	}
}

// wait returns false if the Sequence was stopped while waiting.
func (s *Sequence[T]) wait() bool {
	if s.interval <= 0 {
		select {
		case <-s.quit:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-s.quit:
		return false
	case <-timer.C:
		return true
	}
}

// Stop interrupts production, and waits for the goroutine to exit.
func (s *Sequence[T]) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

// Err returns the error that ended production early, if any.
func (s *Sequence[T]) Err() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.err
}
