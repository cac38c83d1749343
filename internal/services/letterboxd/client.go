package letterboxd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/services"
)

// Film pages link out to TMDB with a /(movie|tv)/<digits>/ path; that link is
// the only thing identity resolution needs from the page.
var tmdbLinkPattern = regexp.MustCompile(`themoviedb\.org/(movie|tv)/(\d+)/?`)

// scraperHeaders mimic a browser so film pages are served without blocking.
var scraperHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client fetches Letterboxd pages: film pages for identity resolution and the
// signed-in export download.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ identity.LinkSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Letterboxd client. A cookie jar is installed so the sign-in
// session survives across the export download redirects.
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "letterboxd", "new", "base url required", nil)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: logging.NewComponentLogger(logger, "letterboxd"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FilmLink resolves a film reference to its canonical identity by fetching
// the page and extracting the TMDB cross-reference link. Every failure mode
// (fetch error, non-200, missing or unparseable link) reports not-found; the
// lookup is never retried within one resolution.
func (c *Client) FilmLink(ctx context.Context, reference string) (identity.Identity, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return identity.Identity{}, services.Wrap(services.ErrNotFound, "letterboxd", "film link", "empty reference", nil)
	}

	pageURL := reference
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		pageURL = c.baseURL + "/" + strings.TrimLeft(pageURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return identity.Identity{}, services.Wrap(services.ErrNotFound, "letterboxd", "film link", "build request", err)
	}
	applyScraperHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return identity.Identity{}, services.Wrap(services.ErrNotFound, "letterboxd", "film link", "fetch page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return identity.Identity{}, services.Wrap(services.ErrNotFound, "letterboxd", "film link",
			fmt.Sprintf("page returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return identity.Identity{}, services.Wrap(services.ErrNotFound, "letterboxd", "film link", "read page", err)
	}

	match := tmdbLinkPattern.FindSubmatch(body)
	if match == nil {
		return identity.Identity{}, services.Wrap(services.ErrNotFound, "letterboxd", "film link", "no cross-reference link on page", nil)
	}

	return identity.Identity{
		ProviderID: string(match[2]),
		Kind:       identity.ParseMediaKind(string(match[1])),
	}, nil
}

func applyScraperHeaders(req *http.Request) {
	for key, value := range scraperHeaders {
		req.Header.Set(key, value)
	}
}
