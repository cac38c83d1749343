package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelsync/internal/export"
	"reelsync/internal/identity"
	"reelsync/internal/logging"
)

// Options tunes the runner. Zero values fall back to the documented defaults.
type Options struct {
	// BatchSize is the per-kind flush threshold.
	BatchSize int
	// ResolveWorkers bounds the identity resolution pool.
	ResolveWorkers int
	// CheckpointInterval persists the cache every N processed records.
	CheckpointInterval int
	// RequestDelay is the politeness pause between sequential calls to the
	// same service.
	RequestDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize < 1 {
		o.BatchSize = 50
	}
	if o.ResolveWorkers < 1 {
		o.ResolveWorkers = 10
	}
	if o.CheckpointInterval < 1 {
		o.CheckpointInterval = 10
	}
	return o
}

// Runner drives one sync run: resolve identities for every record, snapshot
// each service's existing ratings, reconcile, and submit batches. A single
// goroutine coordinates everything; only identity resolution fans out.
type Runner struct {
	cache    *identity.Cache
	resolver *identity.Resolver
	services []Service
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner builds a runner over the shared cache and resolver for one or
// more target services.
func NewRunner(cache *identity.Cache, resolver *identity.Resolver, services []Service, opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		cache:    cache,
		resolver: resolver,
		services: services,
		opts:     opts.withDefaults(),
		logger:   logging.NewComponentLogger(logger, "sync"),
		now:      time.Now,
	}
}

// Run reconciles the parsed records against every configured service and
// returns per-service statistics. An interrupt mid-run still persists the
// cache and flushes non-empty batches before returning; the returned error is
// then the context's.
func (r *Runner) Run(ctx context.Context, records []export.Record) (map[string]*Stats, error) {
	if len(r.services) == 0 {
		return nil, errors.New("no services configured")
	}

	r.resolveMisses(ctx, records)

	allStats := make(map[string]*Stats, len(r.services))
	var runErr error
	for _, service := range r.services {
		stats, err := r.syncService(ctx, service, records)
		allStats[service.Name()] = stats
		if err != nil {
			runErr = err
			break
		}
	}

	// Best-effort drain: the cache is persisted even when the run was cut
	// short so resolved identities survive the interrupt.
	if err := r.cache.Persist(); err != nil {
		r.logger.Warn("failed to persist identity cache", logging.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	return allStats, runErr
}

// resolveMisses fans the uncached references out across the worker pool and
// merges results sequentially, checkpointing the cache as merges land.
// Individual failures are warned and counted later per record; they never
// stop the run.
func (r *Runner) resolveMisses(ctx context.Context, records []export.Record) {
	references := make([]string, 0, len(records))
	for _, record := range records {
		references = append(references, record.Reference)
	}
	misses := r.resolver.Uncached(references)
	if len(misses) == 0 {
		return
	}

	r.logger.Info("resolving uncached references",
		logging.Int("count", len(misses)),
		logging.Int("workers", r.opts.ResolveWorkers))

	sampler := logging.NewProgressSampler(10)
	merged := 0
	r.resolver.ResolveAll(ctx, misses, r.opts.ResolveWorkers, func(result identity.Result) {
		merged++
		if result.Err != nil {
			r.logger.Warn("reference did not resolve",
				logging.String(logging.FieldReference, result.Reference),
				logging.Error(result.Err))
			return
		}
		r.cache.Merge(result.Reference, result.Identity)
		if merged%r.opts.CheckpointInterval == 0 {
			if err := r.cache.Persist(); err != nil {
				r.logger.Warn("cache checkpoint failed", logging.Error(err))
			}
		}
		percent := float64(merged) / float64(len(misses)) * 100
		if sampler.ShouldLog(percent, "resolve") {
			r.logger.Info("resolution progress",
				logging.Int("resolved", merged),
				logging.Int("total", len(misses)))
		}
	})

	if err := r.cache.Persist(); err != nil {
		r.logger.Warn("failed to persist identity cache", logging.Error(err))
	}
}

func (r *Runner) syncService(ctx context.Context, service Service, records []export.Record) (*Stats, error) {
	stats := &Stats{}
	logger := r.logger.With(logging.String(logging.FieldService, service.Name()))

	snapshots := make(map[identity.MediaKind]map[string]float64, 2)
	for _, kind := range []identity.MediaKind{identity.KindMovie, identity.KindShow} {
		snapshot, err := service.ExistingRatings(ctx, kind)
		if err != nil {
			// Partial snapshots only shrink the known-existing set.
			logger.Warn("snapshot fetch incomplete, continuing with partial state",
				logging.String(logging.FieldMediaKind, kind.String()),
				logging.Int("known", len(snapshot)),
				logging.Error(err))
		}
		if snapshot == nil {
			snapshot = make(map[string]float64)
		}
		snapshots[kind] = snapshot
		logger.Info("fetched rating snapshot",
			logging.String(logging.FieldMediaKind, kind.String()),
			logging.Int("existing", len(snapshot)))
	}

	batcher := NewBatcher(service, r.opts.BatchSize, r.opts.RequestDelay, r.logger)
	interrupted := false

	for i, record := range records {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		id, err := r.resolver.Resolve(ctx, record.Reference)
		if err != nil || !id.Valid() {
			stats.Unresolved++
			logger.Warn("skipping record, reference unresolved",
				logging.String(logging.FieldTitle, record.Title),
				logging.String(logging.FieldReference, record.Reference))
			continue
		}
		stats.Resolved++
		// A reference that failed during the fan-out can still resolve here;
		// merge the late success so the next checkpoint persists it.
		r.cache.Merge(record.Reference, id)

		decision := Decide(record, id, snapshots[id.Kind], service.Multiplier(), r.now())
		switch decision.Action {
		case ActionSkip:
			stats.SkippedExisting++
			logger.Debug("skipping record",
				logging.String(logging.FieldTitle, record.Title),
				logging.String("reason", decision.Reason))
		case ActionCreate:
			stats.Created++
			if err := batcher.Enqueue(ctx, decision); err != nil {
				logger.Warn("enqueue flush failed", logging.Error(err))
			}
		case ActionUpdate:
			stats.Updated++
			logger.Info("updating rating",
				logging.String(logging.FieldTitle, record.Title),
				logging.Float64("old", decision.OldRating),
				logging.Float64("new", decision.Rating))
			if err := batcher.Enqueue(ctx, decision); err != nil {
				logger.Warn("enqueue flush failed", logging.Error(err))
			}
		}

		if (i+1)%r.opts.CheckpointInterval == 0 {
			if err := r.cache.Persist(); err != nil {
				logger.Warn("cache checkpoint failed", logging.Error(err))
			}
		}
	}

	// Drain remainders even on interrupt. A fresh context bounds the drain
	// so a dead network cannot hang shutdown.
	flushCtx := ctx
	if interrupted {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}
	if err := batcher.FlushAll(flushCtx); err != nil {
		logger.Warn("final flush incomplete", logging.Error(err))
	}
	stats.Rejected = batcher.Rejected()

	logger.Info("service sync finished",
		logging.Int("resolved", stats.Resolved),
		logging.Int("unresolved", stats.Unresolved),
		logging.Int("skipped", stats.SkippedExisting),
		logging.Int("created", stats.Created),
		logging.Int("updated", stats.Updated),
		logging.Int("rejected", stats.Rejected))

	if interrupted {
		return stats, fmt.Errorf("sync interrupted: %w", ctx.Err())
	}
	return stats, nil
}
