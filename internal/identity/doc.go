// Package identity maps opaque Letterboxd references to canonical TMDB
// identities shared by every rating service.
//
// The mapping is cached indefinitely in a JSON file (cross-service identity is
// assumed stable), written atomically so an interrupted run never corrupts
// previously cached entries. Cache misses are resolved over the network
// through a bounded worker pool: workers compute pure (reference → identity)
// results and the coordinator merges them into the cache sequentially, which
// keeps the cache single-writer without locks on the hot path.
//
// Resolution failures are per-reference and non-fatal; the caller counts them
// and continues with the next record.
package identity
