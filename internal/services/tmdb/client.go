package tmdb

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

// authorizeURLFormat is where the user approves a request token. It lives on
// the website host, not the API host.
const authorizeURLFormat = "https://www.themoviedb.org/authenticate/%s"

// RatedItem is one entry from the account's rated list. Ratings are on the
// provider's 1-10 scale.
type RatedItem struct {
	ID     int64   `json:"id"`
	Rating float64 `json:"rating"`
}

// RatedResponse models the paginated rated-media response. total_pages in the
// body drives pagination termination.
type RatedResponse struct {
	Page         int         `json:"page"`
	Results      []RatedItem `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// Client provides access to the TMDB account rating API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	sessionID  string
	httpClient *http.Client
	logger     *slog.Logger
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

// New creates a TMDB client.
func New(apiKey, baseURL, language string, logger *slog.Logger, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new", "tmdb.api_key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new", "tmdb.base_url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewComponentLogger(logger, "tmdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SetSession installs a previously established session id.
func (c *Client) SetSession(sessionID string) {
	c.sessionID = strings.TrimSpace(sessionID)
}

// Session returns the current session id, empty when not authenticated.
func (c *Client) Session() string {
	return c.sessionID
}

// NewRequestToken starts the authentication flow.
func (c *Client) NewRequestToken(ctx context.Context) (string, error) {
	var payload struct {
		RequestToken string `json:"request_token"`
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if err := c.getJSON(ctx, "/authentication/token/new", params, &payload); err != nil {
		return "", err
	}
	if payload.RequestToken == "" {
		return "", services.Wrap(services.ErrTransient, "tmdb", "request token", "empty token in response", nil)
	}
	return payload.RequestToken, nil
}

// AuthorizeURL is the page the user must visit to approve the request token.
func AuthorizeURL(requestToken string) string {
	return fmt.Sprintf(authorizeURLFormat, requestToken)
}

// NewSession exchanges an approved request token for a session id and
// installs it on the client.
func (c *Client) NewSession(ctx context.Context, requestToken string) (string, error) {
	requestToken = strings.TrimSpace(requestToken)
	if requestToken == "" {
		return "", services.Wrap(services.ErrValidation, "tmdb", "new session", "request token required", nil)
	}
	var payload struct {
		SessionID string `json:"session_id"`
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("request_token", requestToken)
	if err := c.getJSON(ctx, "/authentication/session/new", params, &payload); err != nil {
		return "", err
	}
	if payload.SessionID == "" {
		return "", services.Wrap(services.ErrTransient, "tmdb", "new session", "empty session id in response", nil)
	}
	c.sessionID = payload.SessionID
	return payload.SessionID, nil
}

// Account returns the numeric account id for the authenticated session.
func (c *Client) Account(ctx context.Context) (int64, error) {
	if err := c.requireSession("account"); err != nil {
		return 0, err
	}
	var payload struct {
		ID int64 `json:"id"`
	}
	params := c.sessionParams()
	if err := c.getJSON(ctx, "/account", params, &payload); err != nil {
		return 0, err
	}
	if payload.ID == 0 {
		return 0, services.Wrap(services.ErrTransient, "tmdb", "account", "account id missing from response", nil)
	}
	return payload.ID, nil
}

// RatedPage fetches one page of the account's rated movies or shows. The
// returned total is the provider-reported page count; callers stop once the
// requested page reaches it.
func (c *Client) RatedPage(ctx context.Context, accountID int64, kind identity.MediaKind, page int) ([]RatedItem, int, error) {
	if err := c.requireSession("rated"); err != nil {
		return nil, 0, err
	}
	if accountID <= 0 {
		return nil, 0, services.Wrap(services.ErrValidation, "tmdb", "rated", "account id must be positive", nil)
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("/account/%d/rated/movies", accountID)
	if kind == identity.KindShow {
		endpoint = fmt.Sprintf("/account/%d/rated/tv", accountID)
	}

	params := c.sessionParams()
	params.Set("page", strconv.Itoa(page))

	var payload RatedResponse
	if err := c.getJSON(ctx, endpoint, params, &payload); err != nil {
		return nil, 0, err
	}
	totalPages := payload.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return payload.Results, totalPages, nil
}

// Rate posts a rating for a single movie or show. value is on the provider's
// 1-10 scale. Both 200 and 201 indicate success.
func (c *Client) Rate(ctx context.Context, kind identity.MediaKind, providerID string, value float64) error {
	if err := c.requireSession("rate"); err != nil {
		return err
	}
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return services.Wrap(services.ErrValidation, "tmdb", "rate", "provider id required", nil)
	}

	endpoint, err := url.Parse(fmt.Sprintf("%s/%s/%s/rating", c.baseURL, kind.String(), providerID))
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	endpoint.RawQuery = c.sessionParams().Encode()

	body, err := json.Marshal(map[string]float64{"value": value})
	if err != nil {
		return fmt.Errorf("encode rating body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrTransient, "tmdb", "rate",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var status struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&status)
		detail := fmt.Sprintf("rating returned %d (latency=%v)", resp.StatusCode, latency)
		if status.StatusMessage != "" {
			detail += ": " + status.StatusMessage
		}
		return services.Wrap(services.ErrTransient, "tmdb", "rate", detail, nil)
	}
	return nil
}

func (c *Client) requireSession(operation string) error {
	if c.sessionID == "" {
		return services.Wrap(services.ErrConfiguration, "tmdb", operation,
			"no session established, run the tmdb authentication first", nil)
	}
	return nil
}

func (c *Client) sessionParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("session_id", c.sessionID)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrTransient, "tmdb", path,
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "tmdb", path,
			fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
