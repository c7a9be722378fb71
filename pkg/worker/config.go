package worker

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jzx17/gothreads/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Config defines configuration for a ThreadPool
type Config struct {
	// Name is the pool name; workers are named <Name><index>
	Name string `yaml:"name"`

	// Threads is the number of workers a caller should pass to Start.
	// The pool itself does not read it; it travels with the rest of the
	// file-based configuration.
	Threads int `yaml:"threads"`

	// MaxQueueSize bounds the task queue, 0 means unbounded
	MaxQueueSize int `yaml:"max_queue_size"`

	// MetricsPrefix names the Prometheus collectors, required with Registerer
	MetricsPrefix string `yaml:"metrics_prefix"`

	// Registerer receives the pool's collectors (optional)
	Registerer prometheus.Registerer `yaml:"-"`

	// Logger for lifecycle and crash diagnostics (optional, defaults to slog.Default)
	Logger *slog.Logger `yaml:"-"`

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock `yaml:"-"`

	// ThreadInitCallback runs once on every worker before it takes tasks (optional)
	ThreadInitCallback types.Task `yaml:"-"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Name:   "ThreadPool",
		Clock:  types.NewRealClock(),
		Logger: slog.Default(),
	}
}

// LoadConfig reads a YAML document on top of DefaultConfig
func LoadConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode thread pool config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative, got %d", types.ErrInvalidConfig, c.Threads)
	}
	if c.MaxQueueSize < 0 {
		return fmt.Errorf("%w: max queue size must not be negative, got %d", types.ErrInvalidConfig, c.MaxQueueSize)
	}
	if c.Registerer != nil && c.MetricsPrefix == "" {
		return fmt.Errorf("%w: metrics prefix is required with a registerer", types.ErrInvalidConfig)
	}
	return nil
}
