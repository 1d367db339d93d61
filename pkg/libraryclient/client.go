// Package libraryclient is the consumer side of the library API: a typed HTTP client, a searcher
// that drops stale responses, and the debounced filter state kept in sync with the URL.
package libraryclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"meetup-library/pkg/httpclient"
	"meetup-library/pkg/library"
)

// LibraryPath is the library listing endpoint.
const LibraryPath = "/api/v1/library"

var (
	// ErrRateLimited is returned when the server answers 429.
	ErrRateLimited = errors.New("library: rate limited")
	// ErrSuperseded is returned for a request that was cancelled or overtaken by a newer one.
	// It is not a user-visible failure.
	ErrSuperseded = errors.New("library: request superseded")
)

// Client fetches filtered listings from the library API.
type Client struct {
	baseURL string
	http    *httpclient.HTTPClient
}

// NewClient creates a client for the API served at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewClient(httpclient.APIClient),
	}
}

// Fetch requests the listing for f.
func (c *Client) Fetch(ctx context.Context, f library.Filter) (library.Result, error) {
	endpoint := c.baseURL + LibraryPath
	if q := f.Encode(); q != "" {
		endpoint += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return library.Result{}, fmt.Errorf("build library request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return library.Result{}, fmt.Errorf("library request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return library.Result{}, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return library.Result{}, fmt.Errorf("library request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out library.Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return library.Result{}, fmt.Errorf("decode library response: %w", err)
	}
	return out, nil
}
