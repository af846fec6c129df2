// Mosaic runs a small demo pipeline.
// A sequence of numbers is printed, along with each number doubled.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saylorsolutions/mosaic/boxes"
	"github.com/saylorsolutions/mosaic/pipeline"
	"github.com/saylorsolutions/mosaic/signalx"
	"github.com/saylorsolutions/mosaic/slogx"
	"github.com/saylorsolutions/mosaic/structures/queue"
	flag "github.com/spf13/pflag"
)

const metricsNamespace = "mosaic"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	conf, err := loadConfig(args)
	if err != nil {
		return err
	}
	level, err := slogx.ParseLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slogx.NewHandler(stderr, level))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p, err := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(reg, metricsNamespace),
	)
	if err != nil {
		return err
	}
	if err := wire(p, conf, stdout, logger, reg); err != nil {
		return err
	}

	if len(conf.MetricsAddr) > 0 {
		shutdown := serveMetrics(conf.MetricsAddr, reg, logger)
		defer shutdown()
	}
	cancel := signalx.StopOnSignal(p, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Running pipeline", "start", conf.Start, "count", conf.Count, "interval", conf.Interval)
	if err := p.RunUntilStopped(); err != nil {
		return err
	}
	logger.Info("Pipeline stopped")
	return nil
}

// wire connects a sequence to a printer both directly and through a doubler.
// The pipeline stops itself once every value has reached the printer.
func wire(p *pipeline.Pipeline, conf Config, out io.Writer, logger *slog.Logger, reg prometheus.Registerer) error {
	values := make([]int, conf.Count)
	for i := range values {
		values[i] = conf.Start + i
	}
	source := boxes.NewSequence(conf.Interval, values...)
	if conf.Count == 0 {
		source.OnDone(p.Stop)
	}
	doubler := boxes.Map(func(val int) int {
		return 2 * val
	})
	printer, err := boxes.NewPrinter[int](out, conf.Format,
		queue.WorkerLogger(logger),
		queue.WorkerMetrics(reg, metricsNamespace, "printer"),
	)
	if err != nil {
		return err
	}
	// Connected after the printer, so everything has been handed to it by the time this fires.
	done := boxes.NewCollector[int]().Notify(2*conf.Count, p.Stop)

	if err := pipeline.Connect(p, source.Out, printer.In); err != nil {
		return err
	}
	if err := pipeline.Connect(p, source.Out, doubler.In); err != nil {
		return err
	}
	if err := pipeline.Connect(p, source.Out, done.In); err != nil {
		return err
	}
	if err := pipeline.Connect(p, doubler.Out, printer.In); err != nil {
		return err
	}
	return pipeline.Connect(p, doubler.Out, done.In)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Failed to shut down metrics server", "error", err)
		}
	}
}
