package domain

import (
	"fmt"
	"strings"
	"time"
)

// Location identifies which city's meetup a recording was captured at.
type Location string

const (
	LocationPrague Location = "PRAGUE"
	LocationZlin   Location = "ZLIN"
)

// Locations lists every known location in dataset merge order.
var Locations = []Location{LocationPrague, LocationZlin}

// ParseLocation accepts either the enum form ("PRAGUE") or the city form ("prague").
func ParseLocation(s string) (Location, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LocationPrague):
		return LocationPrague, nil
	case string(LocationZlin):
		return LocationZlin, nil
	}
	return "", fmt.Errorf("unknown location %q", s)
}

// City returns the lowercase city key used by episodes and URLs.
func (l Location) City() string {
	return strings.ToLower(string(l))
}

// Recording is a single talk video in the library. Values are read-only once loaded.
type Recording struct {
	// ID is the YouTube video id and the primary dedup key.
	ID string `json:"id"`

	// ShortID is the short public identifier used in URLs and engagement tables.
	ShortID string `json:"shortId"`

	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Speakers []string  `json:"speakers"`
	Date     time.Time `json:"date"`

	Thumbnail            string `json:"thumbnail"`
	FeatureHeroThumbnail string `json:"featureHeroThumbnail,omitempty"`

	// Description is nil when the dataset carries none.
	Description *string `json:"description"`

	// Tags are lowercased at load time.
	Tags     []string `json:"tags"`
	Location Location `json:"location"`

	EpisodeID     string `json:"episodeId,omitempty"`
	Episode       string `json:"episode,omitempty"`
	EpisodeNumber int    `json:"episodeNumber,omitempty"`
}

// Featured reports whether the recording carries a hero feature thumbnail.
func (r Recording) Featured() bool {
	return r.FeatureHeroThumbnail != ""
}

// DescriptionText returns the description or an empty string.
func (r Recording) DescriptionText() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// HasTag reports whether tag (already lowercased) is attached to the recording.
func (r Recording) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Quarter returns the calendar-quarter bucket of the recording date, e.g. "2024-Q2".
func (r Recording) Quarter() string {
	q := (int(r.Date.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", r.Date.Year(), q)
}

// DaysSince returns the number of UTC calendar days between the recording date and now.
// The time of day is ignored on both sides.
func (r Recording) DaysSince(now time.Time) int {
	return int(utcDay(now).Sub(utcDay(r.Date)).Hours() / 24)
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
