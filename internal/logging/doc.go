// Package logging assembles structured slog loggers and formatting helpers
// used across reelsync components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so sync code tags log lines with
// consistent keys (service, reference, provider id). The package also provides
// a no-op logger for tests and a progress sampler that keeps resolution
// progress readable for large exports.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
