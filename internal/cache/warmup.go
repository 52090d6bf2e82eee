package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/apexview/apexview/internal/observability"
)

// WarmupTask describes one cache entry to pre-populate at startup. Tasks run
// through the same Fetch path as live requests.
type WarmupTask struct {
	Op      string
	Args    []string
	TTL     time.Duration
	Compute ComputeFunc
}

// Warmer pre-populates the cache in the background at process start. It
// never blocks server readiness: Start returns immediately and the tasks run
// in their own goroutine, paced so the upstream provider is not burst at
// boot. A failure warming one key is logged and does not abort the rest.
type Warmer struct {
	orch    *Orchestrator
	limiter *rate.Limiter
	logger  *observability.Logger
	metrics *observability.Metrics
	done    chan struct{}
}

// NewWarmer creates a Warmer that allows at most one provider call per
// pacing interval.
func NewWarmer(orch *Orchestrator, pacing time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Warmer {
	return &Warmer{
		orch:    orch,
		limiter: rate.NewLimiter(rate.Every(pacing), 1),
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}
}

// Start launches the warm-up in the background. Cancelling ctx stops the
// remaining tasks; Done is closed once the run finishes either way.
func (w *Warmer) Start(ctx context.Context, tasks []WarmupTask) {
	go w.run(ctx, tasks)
}

// Done is closed when the warm-up run has finished or been cancelled.
func (w *Warmer) Done() <-chan struct{} {
	return w.done
}

func (w *Warmer) run(ctx context.Context, tasks []WarmupTask) {
	defer close(w.done)

	start := time.Now()
	var failures int

	for i, task := range tasks {
		// The pacing wait is a cooperative suspension; no cache lock is held
		// here or inside Fetch while waiting.
		if err := w.limiter.Wait(ctx); err != nil {
			w.logInfo(ctx, "cache warm-up cancelled", slog.Int("remaining", len(tasks)-i))
			return
		}

		if _, err := w.orch.Fetch(ctx, task.Op, task.Args, task.TTL, task.Compute); err != nil {
			failures++
			w.metrics.WarmupTask("error")
			w.logWarn(ctx, "cache warm-up task failed",
				slog.String("op", task.Op),
				slog.Any("args", task.Args),
				slog.Any("error", err))
			continue
		}
		w.metrics.WarmupTask("ok")
	}

	w.logInfo(ctx, "cache warm-up finished",
		slog.Int("tasks", len(tasks)),
		slog.Int("failures", failures),
		slog.Duration("elapsed", time.Since(start)))
}

func (w *Warmer) logInfo(ctx context.Context, msg string, fields ...any) {
	if w.logger == nil {
		return
	}
	w.logger.WithTrace(ctx).Info(msg, fields...)
}

func (w *Warmer) logWarn(ctx context.Context, msg string, fields ...any) {
	if w.logger == nil {
		return
	}
	w.logger.WithTrace(ctx).Warn(msg, fields...)
}
