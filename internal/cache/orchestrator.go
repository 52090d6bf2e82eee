package cache

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/apexview/apexview/internal/observability"
)

// ComputeFunc produces a payload by calling the external data provider. It
// may block for seconds and must be side-effect-free, so running it more
// than once for the same key is wasteful but harmless.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Orchestrator combines the memo tier, the persistent tier and a compute
// fallback behind a single Fetch entry point. It owns the tier discipline:
// memo first, then store (promoting hits into the memo), then compute,
// populating both tiers on success and caching nothing on failure.
type Orchestrator struct {
	memo  *Memo
	store Store

	// flight coalesces concurrent computes for the same key. Coalescing is
	// an optimization, not a correctness requirement: compute is idempotent.
	flight singleflight.Group

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger for recovered persistent-tier failures.
func WithLogger(l *observability.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics attaches the cache instrumentation counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an Orchestrator over the given tiers.
func NewOrchestrator(memo *Memo, store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		memo:   memo,
		store:  store,
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fetch returns the payload for (op, args), consulting the memo tier, then
// the persistent tier, and finally compute. A store hit warms the memo tier;
// a compute success populates both tiers. Failures from compute propagate
// unchanged and leave no entry behind; failures inside the persistent tier
// are logged and treated as a miss (on read) or a no-op (on write), never
// surfaced to the caller.
//
// No cache lock is held while compute runs.
func (o *Orchestrator) Fetch(ctx context.Context, op string, args []string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	key := Encode(op, args...)

	ctx, span := o.tracer.Start(ctx, "cache.fetch", trace.WithAttributes(
		attribute.String("cache.operation", op),
		attribute.String("cache.key", key),
	))
	defer span.End()

	if payload, ok := o.memo.Get(key); ok {
		span.SetAttributes(attribute.String("cache.tier", "memo"))
		o.metrics.CacheHit("memo")
		return payload, nil
	}

	payload, ok, err := o.store.Get(ctx, key)
	if err != nil {
		// The persistent tier is an optimization; degrade to a miss.
		o.metrics.StoreFailure("get")
		o.logWarn(ctx, "cache store read failed", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		span.SetAttributes(attribute.String("cache.tier", "store"))
		o.metrics.CacheHit("store")
		o.memo.Put(key, payload, ttl)
		return payload, nil
	}

	span.SetAttributes(attribute.String("cache.tier", "compute"))
	o.metrics.CacheMiss()

	result, err, _ := o.flight.Do(key, func() (any, error) {
		payload, err := compute(ctx)
		if err != nil {
			// Nothing is cached on failure: a transient provider fault must
			// not become a persistent negative result.
			return nil, err
		}
		if err := o.store.Set(ctx, key, payload, ttl); err != nil {
			o.metrics.StoreFailure("set")
			o.logWarn(ctx, "cache store write failed", slog.String("key", key), slog.Any("error", err))
		}
		o.memo.Put(key, payload, ttl)
		return payload, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]byte), nil
}

func (o *Orchestrator) logWarn(ctx context.Context, msg string, fields ...any) {
	if o.logger == nil {
		return
	}
	o.logger.WithTrace(ctx).Warn(msg, fields...)
}
