package baselooper

import (
	"github.com/joeycumines/logiface"
	"go.opentelemetry.io/otel/trace"
)

// looperOptions holds configuration resolved from [LooperOption] values.
type looperOptions struct {
	name          string
	logger        *logiface.Logger[logiface.Event]
	metricsWindow int
}

// LooperOption configures a [Looper] at construction time.
type LooperOption interface {
	applyLooper(*looperOptions)
}

type looperOptionFunc func(*looperOptions)

func (f looperOptionFunc) applyLooper(opts *looperOptions) { f(opts) }

// WithLooperName sets a human-readable name used in log fields and
// returned by [Looper.Name]. If unset, [NewLooper] assigns one derived from a
// generated uuid.
func WithLooperName(name string) LooperOption {
	return looperOptionFunc(func(opts *looperOptions) { opts.name = name })
}

// WithLooperLogger attaches a structured logger. A nil logger (the
// default) is silent.
func WithLooperLogger(logger *logiface.Logger[logiface.Event]) LooperOption {
	return looperOptionFunc(func(opts *looperOptions) { opts.logger = logger })
}

// WithLooperMetricsWindow sets the number of recent dispatch latency
// samples kept for percentile estimation. Zero disables the sample buffer
// (counters are still tracked).
func WithLooperMetricsWindow(n int) LooperOption {
	return looperOptionFunc(func(opts *looperOptions) { opts.metricsWindow = n })
}

func resolveLooperOptions(opts []LooperOption) *looperOptions {
	cfg := &looperOptions{metricsWindow: 128}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLooper(cfg)
	}
	return cfg
}

// rosterOptions holds configuration resolved from [RosterOption] values.
type rosterOptions struct {
	logger           *logiface.Logger[logiface.Event]
	tracer           trace.Tracer
	recentDeliveries int
}

// RosterOption configures a [Roster] at construction time.
type RosterOption interface {
	applyRoster(*rosterOptions)
}

type rosterOptionFunc func(*rosterOptions)

func (f rosterOptionFunc) applyRoster(opts *rosterOptions) { f(opts) }

// WithRosterLogger attaches a structured logger. A nil logger (the
// default) is silent.
func WithRosterLogger(logger *logiface.Logger[logiface.Event]) RosterOption {
	return rosterOptionFunc(func(opts *rosterOptions) { opts.logger = logger })
}

// WithTracer attaches an OpenTelemetry tracer used to wrap message
// delivery and synchronous reply round-trips. A nil tracer (the default)
// disables span creation entirely.
func WithTracer(tracer trace.Tracer) RosterOption {
	return rosterOptionFunc(func(opts *rosterOptions) { opts.tracer = tracer })
}

// WithRecentDeliveries sets the maximum number of recent delivery
// debugString entries retained for introspection via
// [Roster.RecentDeliveries]. Zero disables the cache.
func WithRecentDeliveries(n int) RosterOption {
	return rosterOptionFunc(func(opts *rosterOptions) { opts.recentDeliveries = n })
}

func resolveRosterOptions(opts []RosterOption) *rosterOptions {
	cfg := &rosterOptions{recentDeliveries: 64}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyRoster(cfg)
	}
	return cfg
}
