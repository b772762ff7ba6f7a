package jsinterp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/config"
	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cipherjs/internal/js/engine"
)

// Option configures an Interpreter or a Pool
type Option func(*options)

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	metrics    *monitoring.Metrics
	engine     engine.Options
}

func newOptions(opts []Option) options {
	o := options{
		engine: engine.Options{
			MaxDepth: engine.DefaultMaxDepth,
			MaxSteps: engine.DefaultMaxSteps,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.metrics == nil && o.registerer != nil {
		o.metrics = monitoring.NewMetrics(o.registerer)
	}
	return o
}

// WithLogger sets the logger. Calls are logged at debug, faults at warn.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the cipherjs metrics on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithMetrics records into m instead of a metrics set of its own
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMaxDepth limits nested calls
func WithMaxDepth(n int) Option {
	return func(o *options) { o.engine.MaxDepth = n }
}

// WithMaxSteps limits evaluated nodes per call. Zero means unlimited.
func WithMaxSteps(n int64) Option {
	return func(o *options) { o.engine.MaxSteps = n }
}

// WithTimeout limits the wall-clock time of each call
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.engine.Timeout = d }
}

// WithClock sets the time source of Date
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.engine.Clock = now }
}

// WithSeed seeds Math.random
func WithSeed(seed uint64) Option {
	return func(o *options) { o.engine.Seed = seed }
}

// WithConfig applies the interpreter budgets from cfg
func WithConfig(cfg config.Interpreter) Option {
	return func(o *options) {
		o.engine.MaxDepth = cfg.MaxDepth
		o.engine.MaxSteps = cfg.MaxSteps
		o.engine.Timeout = cfg.Timeout
	}
}
