package strarena

import (
	"github.com/hupe1980/strarena/internal/arena"
	"github.com/hupe1980/strarena/internal/rawmem"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	budget           *MemoryBudget
	encoding         Encoding
	heapBacking      bool
	tracking         bool
	releaseOnReset   bool
}

// Option configures pool construction. Forks inherit the options of their parent.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil is passed, metrics
// are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMemoryBudget charges the pool's arena against b.
func WithMemoryBudget(b *MemoryBudget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// WithEncoding sets the encoding used when the Config leaves it zero.
func WithEncoding(enc Encoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}

// WithHeapBacking places the arena in a Go byte slice instead of an anonymous
// memory mapping. Records then live on the garbage-collected heap, which is
// useful on platforms without mmap and in tests.
func WithHeapBacking() Option {
	return func(o *options) {
		o.heapBacking = true
	}
}

// WithAllocationTracking records every granted byte range and fails any
// allocation that would overlap an earlier one.
func WithAllocationTracking() Option {
	return func(o *options) {
		o.tracking = true
	}
}

// WithReleaseOnReset returns the arena's physical pages to the operating
// system on Reset. The address range stays reserved.
func WithReleaseOnReset() Option {
	return func(o *options) {
		o.releaseOnReset = true
	}
}

func (o options) service() rawmem.Service {
	if o.heapBacking {
		return rawmem.NewHeapService(o.budget.acquirer())
	}
	return rawmem.NewMmapService(o.budget.acquirer())
}

func (o options) arenaOptions() []arena.Option {
	var opts []arena.Option
	if o.tracking {
		opts = append(opts, arena.WithTracking())
	}
	if o.releaseOnReset {
		opts = append(opts, arena.WithReleaseOnReset())
	}
	return opts
}
