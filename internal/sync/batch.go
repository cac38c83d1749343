package sync

import (
	"context"
	"log/slog"
	"time"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
)

// Batcher accumulates Create/Update effects per media kind and flushes each
// kind's buffer to the service once it reaches the threshold, plus a final
// unconditional flush at run end. Buffers are transient: a crash loses them
// and the next run's snapshot re-derives the same decisions.
type Batcher struct {
	service   Service
	threshold int
	delay     time.Duration
	logger    *slog.Logger
	buffers   map[identity.MediaKind][]BatchItem
	accepted  int
	rejected  int
}

// NewBatcher creates a batcher for one service.
func NewBatcher(service Service, threshold int, delay time.Duration, logger *slog.Logger) *Batcher {
	if threshold < 1 {
		threshold = 1
	}
	return &Batcher{
		service:   service,
		threshold: threshold,
		delay:     delay,
		logger:    logging.NewComponentLogger(logger, "batcher"),
		buffers:   make(map[identity.MediaKind][]BatchItem),
	}
}

// Enqueue queues a decision's effect. Skip decisions are ignored. The buffer
// for the decision's kind never exceeds the threshold once Enqueue returns.
func (b *Batcher) Enqueue(ctx context.Context, decision Decision) error {
	if decision.Action == ActionSkip {
		return nil
	}

	kind := decision.Identity.Kind
	b.buffers[kind] = append(b.buffers[kind], BatchItem{
		ProviderID: decision.Identity.ProviderID,
		Title:      decision.Title,
		Rating:     decision.Rating,
		Timestamp:  decision.Timestamp,
	})

	if len(b.buffers[kind]) >= b.threshold {
		return b.Flush(ctx, kind)
	}
	return nil
}

// Flush submits one kind's buffer. The buffer is cleared whether or not the
// submission succeeds: a transport failure leaves the batch unconfirmed and
// the next run's snapshot naturally re-attempts it.
func (b *Batcher) Flush(ctx context.Context, kind identity.MediaKind) error {
	items := b.buffers[kind]
	if len(items) == 0 {
		return nil
	}
	b.buffers[kind] = nil

	result, err := b.service.SubmitBatch(ctx, kind, items)
	if err != nil {
		b.logger.Warn("batch submission failed, items unconfirmed until next run",
			logging.String(logging.FieldService, b.service.Name()),
			logging.String(logging.FieldMediaKind, kind.String()),
			logging.Int("items", len(items)),
			logging.Error(err))
		return err
	}

	b.accepted += result.Accepted
	b.rejected += result.Rejected
	b.logger.Info("batch flushed",
		logging.String(logging.FieldService, b.service.Name()),
		logging.String(logging.FieldMediaKind, kind.String()),
		logging.Int("submitted", len(items)),
		logging.Int("accepted", result.Accepted),
		logging.Int("rejected", result.Rejected))

	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
		}
	}
	return nil
}

// FlushAll drains every kind's remainder. All buffers are attempted even when
// one fails; the first error is returned.
func (b *Batcher) FlushAll(ctx context.Context) error {
	var firstErr error
	for _, kind := range []identity.MediaKind{identity.KindMovie, identity.KindShow} {
		if err := b.Flush(ctx, kind); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pending reports how many items are buffered for a kind.
func (b *Batcher) Pending(kind identity.MediaKind) int {
	return len(b.buffers[kind])
}

// Accepted is the total the service confirmed across all flushes.
func (b *Batcher) Accepted() int { return b.accepted }

// Rejected is the total the service could not match across all flushes.
func (b *Batcher) Rejected() int { return b.rejected }
