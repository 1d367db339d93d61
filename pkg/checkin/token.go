// Package checkin verifies attendee QR codes and records check-ins against the site API.
package checkin

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPayload is returned when a scanned code carries no usable token.
var ErrInvalidPayload = errors.New("scanned code does not contain a check-in token")

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9._~-]{6,512}$`)

// ParseToken extracts the check-in token from a scanned payload. Accepted forms are a bare
// token, a URL with a "token" or "t" query parameter, and a URL whose path ends in
// /check-in/<token>.
func ParseToken(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", ErrInvalidPayload
	}

	if tokenPattern.MatchString(payload) {
		return payload, nil
	}

	u, err := url.Parse(payload)
	if err != nil {
		return "", ErrInvalidPayload
	}

	q := u.Query()
	for _, key := range []string{"token", "t"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			if tokenPattern.MatchString(v) {
				return v, nil
			}
			return "", ErrInvalidPayload
		}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "check-in" && tokenPattern.MatchString(segments[i+1]) {
			return segments[i+1], nil
		}
	}
	return "", ErrInvalidPayload
}
