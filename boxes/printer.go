package boxes

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/saylorsolutions/mosaic/pipeline"
	"github.com/saylorsolutions/mosaic/structures/queue"
)

var _ pipeline.Box = (*Printer[int])(nil)

// Printer writes each value it receives to an [io.Writer] as a line of text.
// Writes happen on a [queue.Worker] so a slow writer doesn't hold up the dispatch goroutine.
// Lines still queued when the Printer is stopped are written before Stop returns.
type Printer[T any] struct {
	pipeline.Base
	In     *pipeline.Consumer[T]
	format string
	out    io.Writer
	worker *queue.Worker[T]
}

// NewPrinter creates a [Printer] that formats each value with format, which should have a single verb.
// An empty format uses "%v".
// Failures are logged with the logger given by [queue.WorkerLogger], or [slog.Default].
func NewPrinter[T any](out io.Writer, format string, opts ...queue.WorkerOption) (*Printer[T], error) {
	if out == nil {
		return nil, fmt.Errorf("nil printer output")
	}
	if len(format) == 0 {
		format = "%v"
	}
	p := &Printer[T]{format: format, out: out}
	worker, err := queue.NewWorker(p.write, opts...)
	if err != nil {
		return nil, err
	}
	p.worker = worker
	p.In = pipeline.NewConsumer(p, p.worker.Submit)
	return p, nil
}

func (p *Printer[T]) write(val T) {
	if _, err := fmt.Fprintf(p.out, p.format+"\n", val); err != nil {
		p.logger().Error("Failed to print value", "error", err)
	}
}

func (p *Printer[T]) Start() {
	if err := p.worker.Start(); err != nil {
		p.logger().Error("Failed to start printer worker", "error", err)
	}
}

func (p *Printer[T]) Stop() {
	p.worker.StopAndDrain()
}

func (p *Printer[T]) logger() *slog.Logger {
	return p.worker.Logger()
}
