package checkin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"meetup-library/pkg/clock"
)

// Outcome is a successful scan result.
type Outcome string

const (
	OutcomeCheckedIn        Outcome = "checked_in"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
)

// Failure classifies why a scan did not check anyone in.
type Failure string

const (
	FailureInvalidPayload Failure = "invalid_payload"
	FailureInvalidToken   Failure = "invalid_token"
	FailureRateLimited    Failure = "rate_limited"
	FailureNetwork        Failure = "network"
	FailureServer         Failure = "server"
	FailureRejected       Failure = "rejected"
	FailureDuplicateScan  Failure = "duplicate_scan"
)

// ScanError carries the failure class of a scan.
type ScanError struct {
	Failure Failure
	Err     error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return string(e.Failure)
	}
	return fmt.Sprintf("%s: %v", e.Failure, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// FailureOf returns the failure class of err, or "" when err is not a scan failure.
func FailureOf(err error) Failure {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Failure
	}
	return ""
}

// Result describes a successful scan.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Token    string  `json:"token"`
	PublicID string  `json:"publicId"`
	Name     string  `json:"name,omitempty"`
}

// Defaults for a Reader.
const (
	DefaultMaxTries        = 3
	DefaultCooldown        = 3 * time.Second
	DefaultInitialInterval = 300 * time.Millisecond
)

// Reader turns scanned payloads into check-ins for one event: parse, verify, check in.
// Transient failures (network errors, 429 and 5xx answers) are retried with exponential backoff.
// A token scanned again within the cooldown is reported as a duplicate without calling the API.
type Reader struct {
	api     API
	eventID string

	maxTries uint
	interval time.Duration
	cooldown time.Duration
	clock    clock.Clock
	logger   zerolog.Logger

	mu        sync.Mutex
	lastToken string
	lastAt    time.Time
}

// ReaderOption customizes a Reader.
type ReaderOption func(*Reader)

// WithMaxTries caps attempts per API call.
func WithMaxTries(n uint) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxTries = n
		}
	}
}

// WithInitialInterval sets the first backoff delay.
func WithInitialInterval(d time.Duration) ReaderOption {
	return func(r *Reader) { r.interval = d }
}

// WithCooldown sets the duplicate-scan window. Zero disables duplicate suppression.
func WithCooldown(d time.Duration) ReaderOption {
	return func(r *Reader) { r.cooldown = d }
}

// WithClock replaces the system clock.
func WithClock(c clock.Clock) ReaderOption {
	return func(r *Reader) { r.clock = c }
}

// WithLogger sets the reader logger.
func WithLogger(l zerolog.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// NewReader creates a reader checking attendees into eventID.
func NewReader(api API, eventID string, opts ...ReaderOption) *Reader {
	r := &Reader{
		api:      api,
		eventID:  eventID,
		maxTries: DefaultMaxTries,
		interval: DefaultInitialInterval,
		cooldown: DefaultCooldown,
		clock:    clock.System{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scan processes one scanned payload.
func (r *Reader) Scan(ctx context.Context, payload string) (Result, error) {
	token, err := ParseToken(payload)
	if err != nil {
		return Result{}, &ScanError{Failure: FailureInvalidPayload, Err: err}
	}

	if r.isDuplicate(token) {
		return Result{}, &ScanError{Failure: FailureDuplicateScan}
	}

	verified, err := retry(ctx, r, func() (VerifyResponse, error) {
		return r.api.Verify(ctx, token)
	})
	if err != nil {
		return Result{}, r.classify(err)
	}
	if !verified.Valid || verified.PublicID == "" {
		return Result{}, &ScanError{Failure: FailureInvalidToken, Err: errors.New(orDefault(verified.Error, "token not recognized"))}
	}

	res := Result{Token: token, PublicID: verified.PublicID, Name: verified.Name}

	checked, err := retry(ctx, r, func() (CheckInResponse, error) {
		return r.api.CheckIn(ctx, verified.PublicID, r.eventID)
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			res.Outcome = OutcomeAlreadyCheckedIn
			return res, nil
		}
		return Result{}, r.classify(err)
	}

	switch {
	case checked.AlreadyCheckedIn:
		res.Outcome = OutcomeAlreadyCheckedIn
	case checked.Success:
		res.Outcome = OutcomeCheckedIn
	default:
		return Result{}, &ScanError{Failure: FailureRejected, Err: errors.New(orDefault(checked.Error, "check-in refused"))}
	}

	r.logger.Info().
		Str("event_id", r.eventID).
		Str("public_id", res.PublicID).
		Str("outcome", string(res.Outcome)).
		Msg("attendee scanned")
	return res, nil
}

// isDuplicate reports whether token was just scanned, and remembers it otherwise.
func (r *Reader) isDuplicate(token string) bool {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cooldown > 0 && token == r.lastToken && now.Sub(r.lastAt) < r.cooldown {
		return true
	}
	r.lastToken = token
	r.lastAt = now
	return false
}

// retry runs op, retrying transient failures. Other errors stop at once.
func retry[T any](ctx context.Context, r *Reader, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !transient(err) {
			return v, backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			return v, fmt.Errorf("%w: %w", err, backoff.RetryAfter(se.RetryAfter))
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.Debug().Err(err).Dur("retry_in", next).Msg("check-in call failed, retrying")
		}),
	)
}

func transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (r *Reader) classify(err error) error {
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests:
		return &ScanError{Failure: FailureRateLimited, Err: err}
	case errors.As(err, &se) && se.StatusCode >= 500:
		return &ScanError{Failure: FailureServer, Err: err}
	case errors.As(err, &se):
		return &ScanError{Failure: FailureRejected, Err: err}
	default:
		return &ScanError{Failure: FailureNetwork, Err: err}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
