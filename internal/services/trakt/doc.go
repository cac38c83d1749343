// Package trakt talks to the Trakt v2 API: device-flow authentication,
// header-paginated rating snapshots, and batched /sync/ratings and
// /sync/history submissions keyed by TMDB cross-reference ids.
package trakt
