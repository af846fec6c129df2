package pipeline

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	logger    *slog.Logger
	registry  prometheus.Registerer
	namespace string
}

// Option configures a [Pipeline] created with [New].
type Option func(conf *config) error

// WithLogger sets the logger used for lifecycle and failure reporting.
// [slog.Default] is used if this option is not given.
func WithLogger(logger *slog.Logger) Option {
	return func(conf *config) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		conf.logger = logger
		return nil
	}
}

// WithMetrics registers the [Pipeline]'s metrics with the given registerer, under the given namespace.
// Only one Pipeline may register with a given registerer and namespace.
func WithMetrics(registry prometheus.Registerer, namespace string) Option {
	return func(conf *config) error {
		if registry == nil {
			return errors.New("nil metrics registerer")
		}
		conf.registry = registry
		conf.namespace = namespace
		return nil
	}
}
