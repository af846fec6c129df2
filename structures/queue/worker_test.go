package queue

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_Serial(t *testing.T) {
	var (
		mux      sync.Mutex
		seen     []int
		inFlight atomic.Int32
		overlap  atomic.Bool
		wg       sync.WaitGroup
	)
	wg.Add(100)
	w, err := NewWorker(func(item int) {
		defer wg.Done()
		if inFlight.Add(1) > 1 {
			overlap.Store(true)
		}
		defer inFlight.Add(-1)
		mux.Lock()
		seen = append(seen, item)
		mux.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := 0; i < 100; i++ {
		require.NoError(t, w.Submit(i))
	}
	wg.Wait()

	assert.False(t, overlap.Load(), "Callback should never run concurrently with itself")
	expected := make([]int, 100)
	for i := range expected {
		expected[i] = i
	}
	mux.Lock()
	defer mux.Unlock()
	assert.Equal(t, expected, seen, "Items should be handled in submission order")
}

func TestWorker_SubmitBeforeStart(t *testing.T) {
	done := make(chan string, 1)
	w, err := NewWorker(func(item string) {
		done <- item
	})
	require.NoError(t, err)
	require.NoError(t, w.Submit("early"))
	assert.Equal(t, 1, w.Len())

	require.NoError(t, w.Start())
	defer w.Stop()
	select {
	case item := <-done:
		assert.Equal(t, "early", item)
	case <-time.After(time.Second):
		t.Fatal("Item submitted before start was never processed")
	}
}

func TestWorker_Stop(t *testing.T) {
	w, err := NewWorker(func(int) {})
	require.NoError(t, err)

	assert.NotPanics(t, w.Stop, "Stopping a worker that was never started should be safe")
	assert.ErrorIs(t, w.Start(), ErrWorkerStopped)
	assert.ErrorIs(t, w.Submit(1), ErrWorkerStopped)

	w, err = NewWorker(func(int) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.ErrorIs(t, w.Start(), ErrWorkerStarted)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		w.Stop()
		w.Stop()
	}()
	w.Stop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Concurrent calls to Stop should return")
	}
}

func TestWorker_StopWaitsForCallback(t *testing.T) {
	var (
		entered  = make(chan struct{})
		release  = make(chan struct{})
		finished atomic.Bool
	)
	w, err := NewWorker(func(int) {
		close(entered)
		<-release
		finished.Store(true)
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Submit(1))
	require.NoError(t, w.Submit(2))
	<-entered

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	w.Stop()
	assert.True(t, finished.Load(), "Stop should wait for the in-flight callback")
	assert.Equal(t, 1, w.Len(), "The item queued behind the in-flight one is discarded")
}

func TestWorker_RecoversPanic(t *testing.T) {
	var (
		logs     bytes.Buffer
		registry = prometheus.NewRegistry()
		handled  = make(chan int, 2)
	)
	w, err := NewWorker(func(item int) {
		if item == 0 {
			panic("zero")
		}
		handled <- item
	},
		WorkerLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WorkerMetrics(registry, "test", "panicky"),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Submit(0))
	require.NoError(t, w.Submit(1))

	select {
	case item := <-handled:
		assert.Equal(t, 1, item, "Worker should keep going after a panic")
	case <-time.After(time.Second):
		t.Fatal("Worker stopped processing after a panic")
	}
	w.Stop()

	assert.Contains(t, logs.String(), "zero")
	assert.Equal(t, float64(2), testutil.ToFloat64(w.metrics.submittedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.metrics.processedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(w.metrics.panicsTotal))
}

func TestNewWorker_InvalidOptions(t *testing.T) {
	_, err := NewWorker[int](nil)
	assert.Error(t, err)
	_, err = NewWorker(func(int) {}, WorkerLogger(nil))
	assert.Error(t, err)
	_, err = NewWorker(func(int) {}, WorkerMetrics(prometheus.NewRegistry(), "test", ""))
	assert.Error(t, err)

	registry := prometheus.NewRegistry()
	_, err = NewWorker(func(int) {}, WorkerMetrics(registry, "test", "dupe"))
	require.NoError(t, err)
	_, err = NewWorker(func(int) {}, WorkerMetrics(registry, "test", "dupe"))
	assert.Error(t, err, "Registering the same worker name twice should fail")
}

func TestWorker_StopAndDrain(t *testing.T) {
	var (
		entered = make(chan struct{}, 1)
		release = make(chan struct{})
		mux     sync.Mutex
		seen    []int
	)
	w, err := NewWorker(func(item int) {
		if item == 0 {
			entered <- struct{}{}
			<-release
		}
		mux.Lock()
		seen = append(seen, item)
		mux.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	for i := 0; i < 10; i++ {
		require.NoError(t, w.Submit(i))
	}
	<-entered

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		w.StopAndDrain()
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("StopAndDrain should return once the queue is empty")
	}

	assert.Equal(t, 0, w.Len())
	assert.ErrorIs(t, w.Submit(99), ErrWorkerStopped)
	mux.Lock()
	defer mux.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen, "Every queued item should be handled in order")
	assert.NotPanics(t, w.Stop, "Stopping after draining should be safe")
}

func TestWorker_Logger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(new(bytes.Buffer), nil))
	w, err := NewWorker(func(int) {}, WorkerLogger(logger))
	require.NoError(t, err)
	assert.Same(t, logger, w.Logger())

	w, err = NewWorker(func(int) {})
	require.NoError(t, err)
	assert.Same(t, slog.Default(), w.Logger())
}
