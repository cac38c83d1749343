package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
)

type fakeService struct {
	name      string
	snapshots map[identity.MediaKind]map[string]float64
	snapErr   error
	batches   []submittedBatch
	submitErr error
	rejectIDs map[string]bool
}

type submittedBatch struct {
	kind  identity.MediaKind
	items []BatchItem
}

func (f *fakeService) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeService) Multiplier() float64 { return 2 }

func (f *fakeService) ExistingRatings(ctx context.Context, kind identity.MediaKind) (map[string]float64, error) {
	snapshot := f.snapshots[kind]
	if snapshot == nil {
		snapshot = make(map[string]float64)
	}
	return snapshot, f.snapErr
}

func (f *fakeService) SubmitBatch(ctx context.Context, kind identity.MediaKind, items []BatchItem) (SubmitResult, error) {
	if f.submitErr != nil {
		return SubmitResult{}, f.submitErr
	}
	f.batches = append(f.batches, submittedBatch{kind: kind, items: items})
	result := SubmitResult{}
	for _, item := range items {
		if f.rejectIDs[item.ProviderID] {
			result.Rejected++
		} else {
			result.Accepted++
		}
	}
	return result, nil
}

func createDecision(providerID string, kind identity.MediaKind) Decision {
	return Decision{
		Action:    ActionCreate,
		Identity:  identity.Identity{ProviderID: providerID, Kind: kind},
		Title:     "title-" + providerID,
		Rating:    8,
		Timestamp: "2024-03-15T12:00:00.000Z",
	}
}

func TestBatcherAutoFlushAtThreshold(t *testing.T) {
	service := &fakeService{}
	batcher := NewBatcher(service, 50, 0, logging.NewNop())

	for i := 0; i < 55; i++ {
		decision := createDecision(fmt.Sprintf("%d", i), identity.KindMovie)
		if err := batcher.Enqueue(context.Background(), decision); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if batcher.Pending(identity.KindMovie) >= 50 {
			t.Fatalf("buffer exceeded threshold after enqueue %d", i)
		}
	}

	if len(service.batches) != 1 {
		t.Fatalf("expected exactly one automatic flush, got %d", len(service.batches))
	}
	if len(service.batches[0].items) != 50 {
		t.Fatalf("expected flush of 50, got %d", len(service.batches[0].items))
	}
	if batcher.Pending(identity.KindMovie) != 5 {
		t.Fatalf("expected 5 pending, got %d", batcher.Pending(identity.KindMovie))
	}

	if err := batcher.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}
	if len(service.batches) != 2 || len(service.batches[1].items) != 5 {
		t.Fatalf("expected remainder flush of 5, got %+v", service.batches)
	}
	if batcher.Accepted() != 55 {
		t.Fatalf("expected 55 accepted, got %d", batcher.Accepted())
	}
}

func TestBatcherSkipDecisionsNotEnqueued(t *testing.T) {
	service := &fakeService{}
	batcher := NewBatcher(service, 10, 0, logging.NewNop())

	skip := Decision{Action: ActionSkip, Identity: identity.Identity{ProviderID: "1", Kind: identity.KindMovie}}
	if err := batcher.Enqueue(context.Background(), skip); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if batcher.Pending(identity.KindMovie) != 0 {
		t.Fatal("skip decision must not be buffered")
	}
}

func TestBatcherSeparatesKinds(t *testing.T) {
	service := &fakeService{}
	batcher := NewBatcher(service, 2, 0, logging.NewNop())

	batcher.Enqueue(context.Background(), createDecision("1", identity.KindMovie))
	batcher.Enqueue(context.Background(), createDecision("2", identity.KindShow))
	if len(service.batches) != 0 {
		t.Fatal("kinds must not share a buffer")
	}

	batcher.Enqueue(context.Background(), createDecision("3", identity.KindShow))
	if len(service.batches) != 1 || service.batches[0].kind != identity.KindShow {
		t.Fatalf("expected show flush, got %+v", service.batches)
	}
}

func TestBatcherTransportFailureClearsBuffer(t *testing.T) {
	service := &fakeService{submitErr: errors.New("service unavailable")}
	batcher := NewBatcher(service, 2, 0, logging.NewNop())

	batcher.Enqueue(context.Background(), createDecision("1", identity.KindMovie))
	err := batcher.Enqueue(context.Background(), createDecision("2", identity.KindMovie))
	if err == nil {
		t.Fatal("expected flush error")
	}
	if batcher.Pending(identity.KindMovie) != 0 {
		t.Fatal("failed batch must not be retried within the run")
	}
}

func TestBatcherCountsRejections(t *testing.T) {
	service := &fakeService{rejectIDs: map[string]bool{"2": true}}
	batcher := NewBatcher(service, 10, 0, logging.NewNop())

	batcher.Enqueue(context.Background(), createDecision("1", identity.KindMovie))
	batcher.Enqueue(context.Background(), createDecision("2", identity.KindMovie))
	if err := batcher.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}
	if batcher.Accepted() != 1 || batcher.Rejected() != 1 {
		t.Fatalf("unexpected counts: accepted=%d rejected=%d", batcher.Accepted(), batcher.Rejected())
	}
}

func TestBatcherFlushAllEmptyIsNoop(t *testing.T) {
	service := &fakeService{}
	batcher := NewBatcher(service, 10, 0, logging.NewNop())
	if err := batcher.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}
	if len(service.batches) != 0 {
		t.Fatal("empty buffers must not submit")
	}
}
