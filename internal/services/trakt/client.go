package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/services"
)

// pageCountHeader carries the total page count on paginated responses.
const pageCountHeader = "X-Pagination-Page-Count"

// RatedItem is one entry from the account's ratings list, keyed by the TMDB
// cross-reference id. Trakt ratings are integers on a 1-10 scale.
type RatedItem struct {
	TMDBID int64
	Rating int
}

// IDRef carries the TMDB cross-reference id in sync payloads.
type IDRef struct {
	TMDB int64 `json:"tmdb"`
}

// RatingItem is one entry of a POST /sync/ratings payload.
type RatingItem struct {
	IDs     IDRef  `json:"ids"`
	Rating  int    `json:"rating"`
	RatedAt string `json:"rated_at,omitempty"`
}

// HistoryItem is one entry of a POST /sync/history payload.
type HistoryItem struct {
	IDs       IDRef  `json:"ids"`
	WatchedAt string `json:"watched_at,omitempty"`
}

// SyncResult reports how a sync batch landed: how many items the provider
// accepted for the submitted kind and how many it could not match.
type SyncResult struct {
	Added    int
	NotFound int
}

// Client provides access to the Trakt API.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	accessToken  string
	httpClient   *http.Client
	logger       *slog.Logger
}

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

// New creates a Trakt client.
func New(clientID, clientSecret, baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "trakt", "new",
			"trakt.client_id and trakt.client_secret required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "trakt", "new", "trakt.base_url required", nil)
	}
	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logging.NewComponentLogger(logger, "trakt"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SetToken installs a previously established access token.
func (c *Client) SetToken(accessToken string) {
	c.accessToken = strings.TrimSpace(accessToken)
}

// RatingsPage fetches one page of the account's rated movies or shows.
// Termination is header-driven: the returned total comes from the
// X-Pagination-Page-Count header, and an empty page also means done.
func (c *Client) RatingsPage(ctx context.Context, kind identity.MediaKind, page, limit int) ([]RatedItem, int, error) {
	if err := c.requireToken("ratings"); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	endpoint, err := url.Parse(c.baseURL + "/users/me/ratings/" + kindPlural(kind))
	if err != nil {
		return nil, 0, fmt.Errorf("parse trakt url: %w", err)
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	c.applyHeaders(req)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "trakt", "ratings",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, services.Wrap(services.ErrTransient, "trakt", "ratings",
			fmt.Sprintf("page %d returned %d (latency=%v)", page, resp.StatusCode, latency), nil)
	}

	var entries []struct {
		Rating int `json:"rating"`
		Movie  *struct {
			IDs IDRef `json:"ids"`
		} `json:"movie"`
		Show *struct {
			IDs IDRef `json:"ids"`
		} `json:"show"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, 0, fmt.Errorf("decode trakt ratings: %w", err)
	}

	pageCount := 1
	if raw := resp.Header.Get(pageCountHeader); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageCount = parsed
		}
	}

	items := make([]RatedItem, 0, len(entries))
	for _, entry := range entries {
		var ids IDRef
		switch {
		case entry.Movie != nil:
			ids = entry.Movie.IDs
		case entry.Show != nil:
			ids = entry.Show.IDs
		}
		if ids.TMDB == 0 {
			continue
		}
		items = append(items, RatedItem{TMDBID: ids.TMDB, Rating: entry.Rating})
	}
	return items, pageCount, nil
}

// SyncRatings posts one ratings batch for a single kind.
func (c *Client) SyncRatings(ctx context.Context, kind identity.MediaKind, items []RatingItem) (SyncResult, error) {
	payload := map[string][]RatingItem{kindPlural(kind): items}
	return c.postSync(ctx, "/sync/ratings", kind, payload)
}

// SyncHistory posts one watch-history batch for a single kind.
func (c *Client) SyncHistory(ctx context.Context, kind identity.MediaKind, items []HistoryItem) (SyncResult, error) {
	payload := map[string][]HistoryItem{kindPlural(kind): items}
	return c.postSync(ctx, "/sync/history", kind, payload)
}

func (c *Client) postSync(ctx context.Context, path string, kind identity.MediaKind, payload any) (SyncResult, error) {
	if err := c.requireToken(path); err != nil {
		return SyncResult{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SyncResult{}, fmt.Errorf("encode sync payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return SyncResult{}, fmt.Errorf("build request: %w", err)
	}
	c.applyHeaders(req)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return SyncResult{}, services.Wrap(services.ErrTransient, "trakt", path,
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return SyncResult{}, services.Wrap(services.ErrTransient, "trakt", path,
			fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var reply struct {
		Added    map[string]int               `json:"added"`
		NotFound map[string][]json.RawMessage `json:"not_found"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return SyncResult{}, fmt.Errorf("decode sync response: %w", err)
	}

	result := SyncResult{
		Added:    reply.Added[kindPlural(kind)],
		NotFound: len(reply.NotFound[kindPlural(kind)]),
	}
	if result.NotFound > 0 {
		c.logger.Warn("sync batch had unmatched items",
			logging.String("endpoint", path),
			logging.String(logging.FieldMediaKind, kind.String()),
			logging.Int("not_found", result.NotFound))
	}
	return result, nil
}

func (c *Client) requireToken(operation string) error {
	if c.accessToken == "" {
		return services.Wrap(services.ErrConfiguration, "trakt", operation,
			"no access token, run the trakt authentication first", nil)
	}
	return nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", c.clientID)
}

func kindPlural(kind identity.MediaKind) string {
	if kind == identity.KindShow {
		return "shows"
	}
	return "movies"
}
