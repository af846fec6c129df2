package pipeline

import (
	"sync"
	"testing"
	"time"
)

const testRunTimeout = 5 * time.Second

// eventLog records lifecycle hook calls across boxes.
type eventLog struct {
	mux    sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	if l == nil {
		return
	}
	l.mux.Lock()
	defer l.mux.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) get() []string {
	l.mux.Lock()
	defer l.mux.Unlock()
	return append([]string(nil), l.events...)
}

var (
	_ Box = (*testSource)(nil)
	_ Box = (*testSink)(nil)
	_ Box = (*testDoubler)(nil)
)

// testSource produces its values on its own goroutine once started.
type testSource struct {
	Base
	name   string
	log    *eventLog
	values []int
	Out    *Producer[int]

	wg      sync.WaitGroup
	errMux  sync.Mutex
	prodErr error
}

func newTestSource(name string, log *eventLog, values ...int) *testSource {
	s := &testSource{name: name, log: log, values: values}
	s.Out = NewProducer[int](s)
	return s
}

func (s *testSource) PreStart() {
	s.log.add(s.name + ":pre")
}

func (s *testSource) Start() {
	s.log.add(s.name + ":start")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, val := range s.values {
			if err := s.Out.Produce(val); err != nil {
				s.errMux.Lock()
				s.prodErr = err
				s.errMux.Unlock()
				return
			}
		}
	}()
}

func (s *testSource) Stop() {
	s.wg.Wait()
	s.log.add(s.name + ":stop")
}

func (s *testSource) err() error {
	s.errMux.Lock()
	defer s.errMux.Unlock()
	return s.prodErr
}

// testSink records what it receives, and stops the pipeline once it has stopAt values.
type testSink struct {
	Base
	name    string
	log     *eventLog
	stopAt  int
	onInput func(int) error
	In      *Consumer[int]

	mux      sync.Mutex
	received []int
}

func newTestSink(name string, log *eventLog, stopAt int) *testSink {
	s := &testSink{name: name, log: log, stopAt: stopAt}
	s.In = NewConsumer(s, s.input)
	return s
}

func (s *testSink) input(val int) error {
	if s.onInput != nil {
		if err := s.onInput(val); err != nil {
			return err
		}
	}
	s.mux.Lock()
	s.received = append(s.received, val)
	count := len(s.received)
	s.mux.Unlock()
	if s.stopAt > 0 && count >= s.stopAt {
		s.Pipeline().Stop()
	}
	return nil
}

func (s *testSink) values() []int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]int(nil), s.received...)
}

func (s *testSink) PreStart() {
	s.log.add(s.name + ":pre")
}

func (s *testSink) Start() {
	s.log.add(s.name + ":start")
}

func (s *testSink) Stop() {
	s.log.add(s.name + ":stop")
}

// testDoubler only overrides the hooks it needs, and relies on Base for the rest.
type testDoubler struct {
	Base
	In  *Consumer[int]
	Out *Producer[int]
}

func newTestDoubler() *testDoubler {
	d := new(testDoubler)
	d.In = NewConsumer(d, func(val int) error {
		return d.Out.Produce(2 * val)
	})
	d.Out = NewProducer[int](d)
	return d
}

func seq(from, to int) []int {
	vals := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		vals = append(vals, i)
	}
	return vals
}

// runWithTimeout runs p, failing the test if it doesn't return in time.
func runWithTimeout(t *testing.T, p *Pipeline) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- p.RunUntilStopped()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(testRunTimeout):
		t.Fatal("Pipeline did not stop in time")
		return nil
	}
}
