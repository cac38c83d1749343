package logging_test

import (
	"testing"

	"reelsync/internal/logging"
)

func TestProgressSamplerEmitsOnBucketBoundaries(t *testing.T) {
	sampler := logging.NewProgressSampler(10)

	if !sampler.ShouldLog(0, "resolve") {
		t.Fatal("expected first event to emit")
	}
	if sampler.ShouldLog(4, "resolve") {
		t.Fatal("expected same-bucket event to be suppressed")
	}
	if !sampler.ShouldLog(12, "resolve") {
		t.Fatal("expected new bucket to emit")
	}
	if !sampler.ShouldLog(100, "resolve") {
		t.Fatal("expected completion to emit")
	}
}

func TestProgressSamplerEmitsOnStageChange(t *testing.T) {
	sampler := logging.NewProgressSampler(5)

	if !sampler.ShouldLog(50, "resolve") {
		t.Fatal("expected first stage to emit")
	}
	if !sampler.ShouldLog(50, "reconcile") {
		t.Fatal("expected stage change to emit")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	sampler := logging.NewProgressSampler(5)
	sampler.ShouldLog(90, "resolve")
	sampler.Reset()
	if !sampler.ShouldLog(10, "resolve") {
		t.Fatal("expected emit after reset")
	}
}
