package signspace

import (
	"log/slog"
	"time"

	"github.com/lsfkit/signspace/coherence"
)

type options struct {
	coherenceConfig  *coherence.Config
	metricsCollector MetricsCollector
	logger           *Logger
	clock            func() time.Time
}

// Option configures Manager constructor behavior.
type Option func(*options)

// WithCoherenceConfig sets the validator configuration, e.g. one loaded from
// YAML via coherence.LoadConfig. Defaults to coherence.DefaultConfig.
func WithCoherenceConfig(cfg coherence.Config) Option {
	return func(o *options) {
		o.coherenceConfig = &cfg
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &signspace.BasicMetricsCollector{}
//	mgr := signspace.New(signspace.WithMetricsCollector(metrics))
//	// ... use mgr ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := signspace.NewJSONLogger(slog.LevelInfo)
//	mgr := signspace.New(signspace.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithClock sets the time source used for timestamps. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		clock:            time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
