package httpclient

import (
	"net/http"
	"time"
)

// ClientType selects the header profile sent with each request
type ClientType string

const (
	// APIClient talks JSON to the meetup site API
	APIClient ClientType = "api"

	// FeedClient fetches Atom/RSS channel feeds
	FeedClient ClientType = "feed"
)

// UserAgent identifies this project's tools to remote servers
const UserAgent = "meetup-library/1.0 (+https://github.com/meetup-library)"

// DefaultTimeout bounds a whole request including reading the body
const DefaultTimeout = 15 * time.Second

// HTTPClient wraps an http.Client with configuration
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
}

// NewClient creates a new HTTP client with the specified type
func NewClient(clientType ClientType) *HTTPClient {
	return NewClientWithTimeout(clientType, DefaultTimeout)
}

// NewClientWithTimeout creates a client with a custom overall timeout. Zero disables it.
func NewClientWithTimeout(clientType ClientType, timeout time.Duration) *HTTPClient {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPClient{
		client:     client,
		clientType: clientType,
	}
}

// Do executes an HTTP request with the appropriate headers for the client type
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Client exposes the underlying http.Client for libraries that take one.
func (c *HTTPClient) Client() *http.Client {
	return c.client
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)

	switch c.clientType {
	case APIClient:
		req.Header.Set("Accept", "application/json")
		if req.Body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

	case FeedClient:
		req.Header.Set("Accept", "application/atom+xml, application/rss+xml;q=0.9, application/xml;q=0.8")

	default:
		// Default: only the user agent
	}
}
