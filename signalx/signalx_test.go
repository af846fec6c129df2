//go:build !windows

package signalx

import (
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingStopper struct {
	stops atomic.Int32
}

func (s *countingStopper) Stop() {
	s.stops.Add(1)
}

func TestStopOnSignal(t *testing.T) {
	stopper := new(countingStopper)
	cancel := StopOnSignal(stopper, syscall.SIGUSR1)
	defer cancel()

	proc, err := os.FindProcess(os.Getpid())
	assert.NoError(t, err)
	assert.NoError(t, proc.Signal(syscall.SIGUSR1))
	assert.Eventually(t, func() bool {
		return stopper.stops.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStopOnSignal_Cancel(t *testing.T) {
	stopper := new(countingStopper)
	cancel := StopOnSignal(stopper, syscall.SIGUSR2)
	assert.NotPanics(t, func() {
		cancel()
		cancel()
	})
	assert.Equal(t, int32(0), stopper.stops.Load())
}

func TestStopOnSignal_Invalid(t *testing.T) {
	assert.Panics(t, func() {
		StopOnSignal(nil, os.Interrupt)
	})
	assert.Panics(t, func() {
		StopOnSignal(new(countingStopper))
	})
}
