package signalx

import (
	"os"
	"os/signal"
	"sync"
)

// Stopper is anything that can be asked to stop, like a pipeline.
type Stopper interface {
	Stop()
}

// StopOnSignal calls Stop on stopper when any of the given signals are received.
// If a second signal is received, then [os.Exit] will be called with a non-zero exit code.
// The returned function stops listening for signals, and is safe to call more than once.
func StopOnSignal(stopper Stopper, signals ...os.Signal) (cancel func()) {
	if stopper == nil {
		panic("nil stopper passed to StopOnSignal")
	}
	if len(signals) == 0 {
		panic("no signals passed to StopOnSignal")
	}
	var (
		sigs = make(chan os.Signal, 1)
		done = make(chan struct{})
		once sync.Once
	)
	signal.Notify(sigs, signals...)
	go func() {
		select {
		case <-sigs:
			stopper.Stop()
		case <-done:
			return
		}
		select {
		case <-sigs:
			os.Exit(1)
		case <-done:
		}
	}()
	return func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
		})
	}
}
