// Package tmdb talks to the TMDB v3 API: session authentication via the
// request-token flow, paginated rated-media snapshots, and per-item rating
// posts. The API has no bulk rating endpoint, so submission happens one item
// at a time.
package tmdb
