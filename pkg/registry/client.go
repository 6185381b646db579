package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the public registry API.
const DefaultBaseURL = "https://api.smithed.dev/v2"

// maxErrorBody bounds how much of a failed response is kept in a StatusError.
const maxErrorBody = 4 << 10

// Client talks to the pack registry. The zero value is not usable; use New.
type Client struct {
	BaseURL   string       // API base URL (no trailing slash).
	HTTP      *http.Client // Falls back to http.DefaultClient.
	UserAgent string       // Optional User-Agent header.
}

// New creates a Client for baseURL. A nil httpClient falls back to
// http.DefaultClient, which never times out: a stalled peer blocks the caller
// until its context is cancelled.
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// NewRequest builds a request for rawURL. Relative paths are resolved against
// BaseURL.
func (c *Client) NewRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	if strings.HasPrefix(rawURL, "/") {
		rawURL = c.BaseURL + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("registry: build request: %w", err)
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	return req, nil
}

// Open issues a GET and returns the response body with its content length
// (-1 if unknown). The caller must close the body.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient().Do(req) //nolint:gosec // URLs come from the registry config or the compatibility table.
	if err != nil {
		return nil, 0, fmt.Errorf("registry: get %s: %w: %w", rawURL, ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, 0, fmt.Errorf("registry: %w", &StatusError{
			URL:    rawURL,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		})
	}

	return resp.Body, resp.ContentLength, nil
}

// Fetch downloads the full body at rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := c.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w: %w", rawURL, ErrNetwork, err)
	}

	return data, nil
}

// GetJSON fetches rawURL and decodes the JSON response into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dest any) error {
	data, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.NewDecoder(bytes.NewReader(data)).Decode(dest); err != nil {
		return fmt.Errorf("registry: decode %s: %w", rawURL, err)
	}

	return nil
}

// GetPack fetches a pack's metadata.
func (c *Client) GetPack(ctx context.Context, id string) (PackData, error) {
	var p PackData
	if err := c.GetJSON(ctx, "/packs/"+url.PathEscape(id), &p); err != nil {
		return PackData{}, err
	}
	return p, nil
}

// GetBundle fetches a bundle published on the registry.
func (c *Client) GetBundle(ctx context.Context, id string) (PackBundle, error) {
	var b PackBundle
	if err := c.GetJSON(ctx, "/bundles/"+url.PathEscape(id), &b); err != nil {
		return PackBundle{}, err
	}
	return b, nil
}

// DownloadURL builds the weld request target for packs, keeping their order:
// {base}/download?pack=a@1&pack=b@2.
func (c *Client) DownloadURL(packs []PackReference) string {
	var b strings.Builder
	b.WriteString(c.BaseURL)
	b.WriteString("/download")

	for i, p := range packs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("pack=")
		b.WriteString(p.ID)
		b.WriteByte('@')
		b.WriteString(p.Version)
	}

	return b.String()
}
