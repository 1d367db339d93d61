package library

import (
	"strings"

	"meetup-library/pkg/domain"
)

// Matcher decides whether a catalog entry stays in a filtered listing.
type Matcher interface {
	Keep(e *Entry) bool
}

// filterEntries applies all matchers to entries, keeping those every matcher accepts.
func filterEntries(entries []*Entry, matchers ...Matcher) []*Entry {
	kept := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		keep := true
		for _, m := range matchers {
			if !m.Keep(e) {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, e)
		}
	}
	return kept
}

// LocationMatcher keeps recordings from one location. The zero value keeps everything.
type LocationMatcher struct {
	Location domain.Location
}

// Keep implements Matcher.
func (m LocationMatcher) Keep(e *Entry) bool {
	return m.Location == "" || e.Recording.Location == m.Location
}

// TagMatcher keeps recordings carrying a tag.
type TagMatcher struct {
	Tag string
}

// Keep implements Matcher.
func (m TagMatcher) Keep(e *Entry) bool {
	return m.Tag == "" || e.Recording.HasTag(m.Tag)
}

// EpisodeMatcher keeps recordings of one episode.
type EpisodeMatcher struct {
	EpisodeID string
}

// Keep implements Matcher.
func (m EpisodeMatcher) Keep(e *Entry) bool {
	return m.EpisodeID == "" || e.Recording.EpisodeID == m.EpisodeID
}

// QueryMatcher keeps recordings with a searchable field containing the normalized query.
type QueryMatcher struct {
	normalized string
}

// NewQueryMatcher normalizes q once for repeated matching.
func NewQueryMatcher(q string) QueryMatcher {
	return QueryMatcher{normalized: Normalize(q)}
}

// Keep implements Matcher.
func (m QueryMatcher) Keep(e *Entry) bool {
	if m.normalized == "" {
		return true
	}
	for _, field := range e.fields {
		if strings.Contains(field, m.normalized) {
			return true
		}
	}
	return false
}
