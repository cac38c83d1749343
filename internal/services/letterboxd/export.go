package letterboxd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"reelsync/internal/logging"
	"reelsync/internal/services"
)

// ExportFileName is the name the downloaded export is saved under.
const ExportFileName = "letterboxd-export.zip"

var (
	csrfPattern       = regexp.MustCompile(`name="__csrf"\s+value="([^"]+)"`)
	exportLinkPattern = regexp.MustCompile(`href="([^"]*data/export[^"]*\.zip)"`)
	zipMagic          = []byte("PK\x03\x04")
)

// DownloadExport signs in and downloads the user's data export zip into
// outputDir, returning the saved file path. The export page either serves the
// zip directly or a page containing the download link; both are handled.
func (c *Client) DownloadExport(ctx context.Context, username, password, outputDir string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", services.Wrap(services.ErrConfiguration, "letterboxd", "export",
			"letterboxd.username and letterboxd.password are required to download the export", nil)
	}

	csrf, err := c.fetchCSRF(ctx)
	if err != nil {
		return "", err
	}

	if err := c.signIn(ctx, username, password, csrf); err != nil {
		return "", err
	}
	c.logger.Info("signed in to letterboxd", logging.String("username", username))

	content, err := c.fetchExport(ctx)
	if err != nil {
		return "", err
	}

	if !bytes.HasPrefix(content, zipMagic) {
		return "", services.Wrap(services.ErrTransient, "letterboxd", "export", "downloaded file is not a valid zip", nil)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(outputDir, ExportFileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}

	c.logger.Info("saved letterboxd export", logging.String("path", path))
	return path, nil
}

func (c *Client) fetchCSRF(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sign-in/", nil)
	if err != nil {
		return "", fmt.Errorf("build sign-in request: %w", err)
	}
	applyScraperHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "letterboxd", "export", "load sign-in page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "letterboxd", "export",
			fmt.Sprintf("sign-in page returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "letterboxd", "export", "read sign-in page", err)
	}

	match := csrfPattern.FindSubmatch(body)
	if match == nil {
		return "", services.Wrap(services.ErrTransient, "letterboxd", "export", "csrf token not found on sign-in page", nil)
	}
	return string(match[1]), nil
}

func (c *Client) signIn(ctx context.Context, username, password, csrf string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("__csrf", csrf)
	form.Set("remember", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user/login.do", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	applyScraperHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "letterboxd", "export", "post login", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	// A failed login lands back on the sign-in page.
	if resp.StatusCode != http.StatusOK || strings.Contains(resp.Request.URL.Path, "sign-in") {
		return services.Wrap(services.ErrConfiguration, "letterboxd", "export",
			"login failed, check letterboxd.username and letterboxd.password", nil)
	}
	return nil
}

func (c *Client) fetchExport(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/export/", nil)
	if err != nil {
		return nil, fmt.Errorf("build export request: %w", err)
	}
	applyScraperHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "letterboxd", "export", "request export page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "letterboxd", "export",
			fmt.Sprintf("export page returned %d", resp.StatusCode), nil)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "letterboxd", "export", "read export response", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "zip") || strings.Contains(contentType, "octet-stream") || bytes.HasPrefix(content, zipMagic) {
		return content, nil
	}

	// The export page rendered HTML; find the download link on it.
	match := exportLinkPattern.FindSubmatch(content)
	if match == nil {
		return nil, services.Wrap(services.ErrTransient, "letterboxd", "export", "download link not found on export page", nil)
	}
	downloadURL := string(match[1])
	if !strings.HasPrefix(downloadURL, "http") {
		downloadURL = c.baseURL + "/" + strings.TrimLeft(downloadURL, "/")
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	applyScraperHeaders(req)

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "letterboxd", "export", "download export", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "letterboxd", "export",
			fmt.Sprintf("export download returned %d", resp.StatusCode), nil)
	}

	return io.ReadAll(resp.Body)
}
