package checkin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"meetup-library/pkg/httpclient"
)

// API endpoints.
const (
	VerifyPath  = "/api/v1/check-in/verify"
	CheckInPath = "/api/v1/check-in"
)

// VerifyResponse is the answer to a token verification.
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	PublicID string `json:"publicId,omitempty"`
	Name     string `json:"name,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CheckInResponse is the answer to a check-in.
type CheckInResponse struct {
	Success          bool   `json:"success"`
	AlreadyCheckedIn bool   `json:"alreadyCheckedIn,omitempty"`
	Error            string `json:"error,omitempty"`
}

// StatusError is a non-2xx API response.
type StatusError struct {
	StatusCode int
	Message    string
	RetryAfter int // seconds, from the Retry-After header
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("check-in API status %d", e.StatusCode)
	}
	return fmt.Sprintf("check-in API status %d: %s", e.StatusCode, e.Message)
}

// API is the check-in backend.
type API interface {
	Verify(ctx context.Context, token string) (VerifyResponse, error)
	CheckIn(ctx context.Context, userID, eventID string) (CheckInResponse, error)
}

// Client calls the check-in endpoints over HTTP.
type Client struct {
	baseURL   string
	authToken string
	http      *httpclient.HTTPClient
}

var _ API = (*Client)(nil)

// NewClient creates a client for the API at baseURL. authToken, when set, is sent as a bearer
// token identifying the scanning organizer.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      httpclient.NewClient(httpclient.APIClient),
	}
}

// Verify checks a scanned token.
func (c *Client) Verify(ctx context.Context, token string) (VerifyResponse, error) {
	var out VerifyResponse
	err := c.post(ctx, VerifyPath, map[string]string{"token": token}, &out)
	return out, err
}

// CheckIn records userID as present at eventID.
func (c *Client) CheckIn(ctx context.Context, userID, eventID string) (CheckInResponse, error) {
	var out CheckInResponse
	err := c.post(ctx, CheckInPath, map[string]string{"userId": userID, "eventId": eventID}, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
			serr.RetryAfter = s
		}
		return serr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// errorMessage pulls the "error" field out of a JSON error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
