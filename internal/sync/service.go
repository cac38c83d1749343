package sync

import (
	"context"

	"reelsync/internal/identity"
)

// BatchItem is one decided Create/Update effect queued for submission: a
// rating plus a linked watch-history entry sharing the same timestamp.
type BatchItem struct {
	ProviderID string
	Title      string
	Rating     float64
	Timestamp  string
}

// SubmitResult reports how a submitted batch landed. Rejected covers items
// the provider accepted the batch for but could not match; they are warned
// about and never retried within the run.
type SubmitResult struct {
	Accepted int
	Rejected int
}

// Service is one remote rating target. Implementations own the wire details:
// pagination style, payload shape, and whether submission is batched or
// per-item.
type Service interface {
	// Name identifies the service in logs and run statistics.
	Name() string

	// Multiplier converts the source 0-5 half-step scale to the service's
	// native scale.
	Multiplier() float64

	// ExistingRatings pages through the account's rated media of one kind
	// into a provider_id → rating index. A page failure ends pagination
	// early and returns whatever accumulated alongside the error; a
	// partial snapshot only means fewer known-existing ratings.
	ExistingRatings(ctx context.Context, kind identity.MediaKind) (map[string]float64, error)

	// SubmitBatch sends one batch of rating effects for a single kind.
	SubmitBatch(ctx context.Context, kind identity.MediaKind, items []BatchItem) (SubmitResult, error)
}
