package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"reelsync/internal/logging"
	"reelsync/internal/services"
)

// DeviceCode is the provider's half of the device authorization flow: the
// user enters UserCode at VerificationURL while the client polls with
// DeviceCode.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// Token is the OAuth token material returned once the user approves.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	CreatedAt    int64  `json:"created_at"`
}

// NewDeviceCode starts the device authorization flow.
func (c *Client) NewDeviceCode(ctx context.Context) (*DeviceCode, error) {
	body, err := json.Marshal(map[string]string{"client_id": c.clientID})
	if err != nil {
		return nil, fmt.Errorf("encode device code request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/device/code", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "trakt", "device code", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "trakt", "device code",
			fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}

	var code DeviceCode
	if err := json.NewDecoder(resp.Body).Decode(&code); err != nil {
		return nil, fmt.Errorf("decode device code: %w", err)
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return nil, services.Wrap(services.ErrTransient, "trakt", "device code", "incomplete device code response", nil)
	}
	if code.Interval < 1 {
		code.Interval = 5
	}
	return &code, nil
}

// PollToken polls the token endpoint until the user approves, the code
// expires, or ctx is cancelled. Status 400 means authorization is still
// pending; every other non-200 status ends the flow. On success the token is
// installed on the client.
func (c *Client) PollToken(ctx context.Context, code *DeviceCode) (*Token, error) {
	deadline := time.Now().Add(time.Duration(code.ExpiresIn) * time.Second)
	interval := time.Duration(code.Interval) * time.Second

	body, err := json.Marshal(map[string]string{
		"code":          code.DeviceCode,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		token, done, err := c.pollOnce(ctx, body)
		if err != nil {
			return nil, err
		}
		if done {
			c.SetToken(token.AccessToken)
			c.logger.Info("device authorization approved", logging.String("scope", token.Scope))
			return token, nil
		}
	}
	return nil, services.Wrap(services.ErrValidation, "trakt", "device token", "device code expired before approval", nil)
}

func (c *Client) pollOnce(ctx context.Context, body []byte) (*Token, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/device/token", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, services.Wrap(services.ErrTransient, "trakt", "device token", "execute request", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var token Token
		if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
			return nil, false, fmt.Errorf("decode token: %w", err)
		}
		return &token, true, nil
	case http.StatusBadRequest:
		// Authorization pending, keep polling.
		return nil, false, nil
	case http.StatusNotFound:
		return nil, false, services.Wrap(services.ErrValidation, "trakt", "device token", "invalid device code", nil)
	case http.StatusConflict:
		return nil, false, services.Wrap(services.ErrValidation, "trakt", "device token", "device code already used", nil)
	case http.StatusGone:
		return nil, false, services.Wrap(services.ErrValidation, "trakt", "device token", "device code expired", nil)
	case http.StatusTeapot:
		return nil, false, services.Wrap(services.ErrValidation, "trakt", "device token", "authorization denied by user", nil)
	default:
		return nil, false, services.Wrap(services.ErrTransient, "trakt", "device token",
			fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
}
