package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config controls the demo pipeline.
// Values are read from an optional YAML file first, and any flags given explicitly override them.
type Config struct {
	Start       int           `yaml:"start"`        // First value produced.
	Count       int           `yaml:"count"`        // Number of values produced.
	Interval    time.Duration `yaml:"interval"`     // Wait before each value, like "30ms".
	Format      string        `yaml:"format"`       // Printer format with a single verb.
	MetricsAddr string        `yaml:"metrics_addr"` // Serves prometheus metrics if set.
	LogLevel    string        `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Start:    5,
		Count:    6,
		Interval: 100 * time.Millisecond,
		Format:   "Consumed number %d",
		LogLevel: "info",
	}
}

func (c Config) validate() error {
	if c.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidConfig)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("mosaic", flag.ContinueOnError)
	defaults := defaultConfig()
	fs.StringP("config", "c", "", "Path to a YAML config file")
	fs.Int("start", defaults.Start, "First value to produce")
	fs.IntP("count", "n", defaults.Count, "Number of values to produce")
	fs.Duration("interval", defaults.Interval, "Time to wait before producing each value")
	fs.String("format", defaults.Format, "Format used to print each consumed value")
	fs.String("metrics-addr", defaults.MetricsAddr, "Address to serve prometheus metrics on, like ':9090'")
	fs.String("log-level", defaults.LogLevel, "Minimum log level: debug, info, warn, or error")
	return fs
}

// loadConfig parses args, reading the config file if one is given.
func loadConfig(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	conf := defaultConfig()
	if path, _ := fs.GetString("config"); len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return Config{}, fmt.Errorf("%w: failed to parse '%s': %w", ErrInvalidConfig, path, err)
		}
	}
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "start":
			conf.Start, err = fs.GetInt(f.Name)
		case "count":
			conf.Count, err = fs.GetInt(f.Name)
		case "interval":
			conf.Interval, err = fs.GetDuration(f.Name)
		case "format":
			conf.Format, err = fs.GetString(f.Name)
		case "metrics-addr":
			conf.MetricsAddr, err = fs.GetString(f.Name)
		case "log-level":
			conf.LogLevel, err = fs.GetString(f.Name)
		}
	})
	if err != nil {
		return Config{}, err
	}
	return conf, conf.validate()
}
