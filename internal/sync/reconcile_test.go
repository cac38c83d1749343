package sync

import (
	"math"
	"testing"
	"time"

	"reelsync/internal/export"
	"reelsync/internal/identity"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func TestDecideCreateWhenAbsent(t *testing.T) {
	record := export.Record{Title: "The Matrix", Reference: "https://boxd.it/2a", Rating: 4.5}
	id := identity.Identity{ProviderID: "603", Kind: identity.KindMovie}

	decision := Decide(record, id, map[string]float64{}, 2, fixedNow)
	if decision.Action != ActionCreate {
		t.Fatalf("expected create, got %v", decision.Action)
	}
	if decision.Rating != 9 {
		t.Fatalf("expected normalized rating 9, got %v", decision.Rating)
	}
}

func TestDecideSkipWithinEpsilon(t *testing.T) {
	record := export.Record{Title: "The Matrix", Reference: "x", Rating: 4.5}
	id := identity.Identity{ProviderID: "603", Kind: identity.KindMovie}
	snapshot := map[string]float64{"603": 9.0}

	decision := Decide(record, id, snapshot, 2, fixedNow)
	if decision.Action != ActionSkip {
		t.Fatalf("expected skip, got %v", decision.Action)
	}
	if decision.Reason == "" {
		t.Fatal("skip must carry a reason")
	}
}

func TestDecideUpdateCarriesBothValues(t *testing.T) {
	record := export.Record{Title: "The Matrix", Reference: "x", Rating: 4.5}
	id := identity.Identity{ProviderID: "603", Kind: identity.KindMovie}
	snapshot := map[string]float64{"603": 7.0}

	decision := Decide(record, id, snapshot, 2, fixedNow)
	if decision.Action != ActionUpdate {
		t.Fatalf("expected update, got %v", decision.Action)
	}
	if decision.OldRating != 7 || decision.Rating != 9 {
		t.Fatalf("expected old=7 new=9, got old=%v new=%v", decision.OldRating, decision.Rating)
	}
}

func TestDecideConversionAcrossScale(t *testing.T) {
	id := identity.Identity{ProviderID: "1", Kind: identity.KindMovie}
	for r := 0.5; r <= 5.0; r += 0.5 {
		record := export.Record{Title: "t", Reference: "x", Rating: r}
		normalized := r * 2
		if normalized < 1 || normalized > 10 {
			t.Fatalf("normalized rating %v out of range", normalized)
		}

		skip := Decide(record, id, map[string]float64{"1": normalized}, 2, fixedNow)
		if skip.Action != ActionSkip {
			t.Fatalf("rating %v: expected skip against equal existing, got %v", r, skip.Action)
		}

		update := Decide(record, id, map[string]float64{"1": normalized + 1}, 2, fixedNow)
		if update.Action != ActionUpdate {
			t.Fatalf("rating %v: expected update against different existing, got %v", r, update.Action)
		}
	}
}

func TestDecideEpsilonBoundary(t *testing.T) {
	id := identity.Identity{ProviderID: "1", Kind: identity.KindMovie}
	record := export.Record{Title: "t", Reference: "x", Rating: 4.5}

	within := Decide(record, id, map[string]float64{"1": 9.05}, 2, fixedNow)
	if within.Action != ActionSkip {
		t.Fatalf("difference below epsilon must skip, got %v", within.Action)
	}

	outside := Decide(record, id, map[string]float64{"1": 9.2}, 2, fixedNow)
	if outside.Action != ActionUpdate {
		t.Fatalf("difference above epsilon must update, got %v", outside.Action)
	}
	if math.Abs(outside.OldRating-9.2) > 1e-9 {
		t.Fatalf("unexpected old rating: %v", outside.OldRating)
	}
}

func TestSubmissionTimestampPrefersWatchDate(t *testing.T) {
	record := export.Record{Title: "t", Reference: "x", Rating: 3, WatchDate: "2023-11-02"}
	if got := submissionTimestamp(record, fixedNow); got != "2023-11-02T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp: %q", got)
	}

	record.WatchDate = ""
	if got := submissionTimestamp(record, fixedNow); got != "2024-03-15T09:30:00.000Z" {
		t.Fatalf("unexpected fallback timestamp: %q", got)
	}
}
