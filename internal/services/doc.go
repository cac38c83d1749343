// Package services defines shared utilities consumed by the sync engine and
// the external service clients.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal configuration vs recoverable network) uniform
//     across the letterboxd, tmdb, and trakt clients.
//
// Use these helpers when wiring new service logic so operational behaviour
// stays consistent: a transient network failure skips one unit of work, a
// configuration failure aborts before any network activity.
package services
