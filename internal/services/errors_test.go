package services_test

import (
	"errors"
	"strings"
	"testing"

	"reelsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "trakt", "ratings", "page fetch failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"trakt", "ratings", "page fetch failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "tmdb", "rate", "post failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	configErr := services.Wrap(services.ErrConfiguration, "trakt", "auth", "client id missing", nil)
	if !services.IsFatal(configErr) {
		t.Fatalf("expected configuration error to be fatal: %v", configErr)
	}

	transientErr := services.Wrap(services.ErrTransient, "tmdb", "ratings", "timeout", errors.New("io"))
	if services.IsFatal(transientErr) {
		t.Fatalf("expected transient error to be recoverable: %v", transientErr)
	}

	if services.IsFatal(nil) {
		t.Fatal("nil error must not be fatal")
	}
}
