package identity

import "strings"

// MediaKind distinguishes movies from shows across every service reelsync
// talks to.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindMovie
	KindShow
)

// String returns the canonical wire form used by the identity cache and the
// TMDB API ("movie" or "tv").
func (k MediaKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindShow:
		return "tv"
	default:
		return "unknown"
	}
}

// ParseMediaKind maps a wire value back to a MediaKind. The "tv" and "show"
// spellings both normalize to KindShow.
func ParseMediaKind(value string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie":
		return KindMovie
	case "tv", "show":
		return KindShow
	default:
		return KindUnknown
	}
}

// Identity is the canonical cross-service identifier for one catalog entry.
type Identity struct {
	ProviderID string
	Kind       MediaKind
}

// Valid reports whether the identity carries both a provider id and a known kind.
func (id Identity) Valid() bool {
	return strings.TrimSpace(id.ProviderID) != "" && id.Kind != KindUnknown
}
