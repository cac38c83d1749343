package identity

import (
	"context"
	"log/slog"

	"reelsync/internal/logging"
)

// LinkSource resolves a source-site reference to its canonical identity over
// the network. Implementations must be safe for concurrent use; the resolver
// fans calls out across a worker pool.
type LinkSource interface {
	FilmLink(ctx context.Context, reference string) (Identity, error)
}

// Resolver maps source-site references to canonical identities, consulting
// the cache first and falling back to a network lookup. Resolution itself is
// side-effect-free: merging results into the cache is the caller's job, which
// keeps all cache writes on the coordinator.
type Resolver struct {
	cache  *Cache
	source LinkSource
	logger *slog.Logger
}

// NewResolver constructs a resolver over the given cache and link source.
func NewResolver(cache *Cache, source LinkSource, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:  cache,
		source: source,
		logger: logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve returns the identity for a reference. Cache hits return
// immediately with no network call. On a miss the link source is consulted
// once; any fetch or parse failure surfaces as an error and is never retried
// within a single resolution.
func (r *Resolver) Resolve(ctx context.Context, reference string) (Identity, error) {
	if id, found := r.cache.Get(reference); found {
		return id, nil
	}
	return r.source.FilmLink(ctx, reference)
}

// Uncached filters references down to the ones missing from the cache,
// preserving order and dropping duplicates.
func (r *Resolver) Uncached(references []string) []string {
	seen := make(map[string]struct{}, len(references))
	misses := make([]string, 0, len(references))
	for _, reference := range references {
		if _, dup := seen[reference]; dup {
			continue
		}
		seen[reference] = struct{}{}
		if _, found := r.cache.Get(reference); !found {
			misses = append(misses, reference)
		}
	}
	return misses
}
