// Package config loads, normalizes, and validates reelsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and TRAKT_CLIENT_ID. The Config type centralizes every knob the
// CLI needs, so the data directory, service credentials, and sync tuning are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
