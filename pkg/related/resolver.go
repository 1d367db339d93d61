// Package related picks recordings to show next to a given recording.
//
// Candidates are grouped into signal pools (shared tags, shared speakers, same episode, same
// location, everything). The first non-empty pool supplies a "next up" pick, then every pool in
// turn is drained with a diversity-penalized score until the limit is reached. Recordings from an
// episode that is already represented are skipped until the last pass.
package related

import (
	"strings"
	"time"

	"meetup-library/pkg/clock"
	"meetup-library/pkg/domain"
)

// DefaultLimit is the number of related recordings shown on a recording page.
const DefaultLimit = 4

// Score weights.
const (
	sameEpisodeWeight   = 6
	sameLocationWeight  = 2
	sharedTagWeight     = 3
	sharedTagCap        = 3
	sharedSpeakerWeight = 4
	sharedSpeakerCap    = 2

	usedTagPenalty     = 2
	usedSpeakerPenalty = 4
	offTopicPenalty    = 4
)

// Resolver selects related recordings. It is stateless apart from its clock.
type Resolver struct {
	clock clock.Clock
}

// NewResolver creates a resolver. A nil clock uses the system clock.
func NewResolver(c clock.Clock) *Resolver {
	if c == nil {
		c = clock.System{}
	}
	return &Resolver{clock: c}
}

// candidate is one other recording measured against the source recording.
type candidate struct {
	rec            domain.Recording
	sharedTags     int
	sharedSpeakers int
	sameEpisode    bool
	sameLocation   bool
	score          int
}

// pass is one step of the cascade: which candidates it draws from and whether it may reuse an
// episode that is already represented in the result.
type pass struct {
	name              string
	admit             func(*candidate) bool
	allowEpisodeReuse bool
}

var passes = []pass{
	{name: "tags", admit: func(c *candidate) bool { return c.sharedTags > 0 }},
	{name: "speakers", admit: func(c *candidate) bool { return c.sharedSpeakers > 0 }},
	{name: "episode", admit: func(c *candidate) bool { return c.sameEpisode }},
	{name: "location", admit: func(c *candidate) bool { return c.sameLocation }},
	{name: "all", admit: func(*candidate) bool { return true }},
	{name: "all-reuse", admit: func(*candidate) bool { return true }, allowEpisodeReuse: true},
}

// Related returns up to limit recordings related to rec, drawn from all. rec itself is never
// returned. A non-positive limit falls back to DefaultLimit.
func (r *Resolver) Related(rec domain.Recording, all []domain.Recording, limit int) []domain.Recording {
	if limit <= 0 {
		limit = DefaultLimit
	}

	cands := r.candidates(rec, all)
	if len(cands) == 0 {
		return []domain.Recording{}
	}

	primary := -1
	for i, p := range passes {
		if p.allowEpisodeReuse {
			break
		}
		if hasAny(cands, p.admit) {
			primary = i
			break
		}
	}

	s := newSelection(limit)
	if primary < 0 {
		return s.recordings()
	}

	// next up
	if first := nextUp(cands, passes[primary].admit); first != nil {
		s.add(first)
	}

	penalizeOffTopic := passes[primary].name == "tags"
	for _, p := range passes[primary:] {
		if s.full() {
			break
		}
		s.fill(cands, p, penalizeOffTopic)
	}
	return s.recordings()
}

func (r *Resolver) candidates(rec domain.Recording, all []domain.Recording) []*candidate {
	now := r.clock.Now()
	tags := toSet(rec.Tags, false)
	speakers := toSet(rec.Speakers, true)

	seen := map[string]bool{rec.ID: true}
	out := make([]*candidate, 0, len(all))
	for _, other := range all {
		if seen[other.ID] {
			continue
		}
		seen[other.ID] = true

		c := &candidate{
			rec:            other,
			sharedTags:     countShared(other.Tags, tags, false),
			sharedSpeakers: countShared(other.Speakers, speakers, true),
			sameEpisode:    rec.EpisodeID != "" && other.EpisodeID == rec.EpisodeID,
			sameLocation:   other.Location == rec.Location,
		}
		c.score = baseScore(c, now)
		out = append(out, c)
	}
	return out
}

func baseScore(c *candidate, now time.Time) int {
	score := 0
	if c.sameEpisode {
		score += sameEpisodeWeight
	}
	if c.sameLocation {
		score += sameLocationWeight
	}
	score += sharedTagWeight * min(c.sharedTags, sharedTagCap)
	score += sharedSpeakerWeight * min(c.sharedSpeakers, sharedSpeakerCap)

	switch days := c.rec.DaysSince(now); {
	case days <= 90:
		score += 2
	case days <= 180:
		score += 1
	}
	return score
}

// nextUp returns the best candidate admitted by admit, compared by shared tags, shared speakers,
// same episode, score, date and title in that order.
func nextUp(cands []*candidate, admit func(*candidate) bool) *candidate {
	var best *candidate
	for _, c := range cands {
		if !admit(c) {
			continue
		}
		if best == nil || betterNextUp(c, best) {
			best = c
		}
	}
	return best
}

func betterNextUp(a, b *candidate) bool {
	if a.sharedTags != b.sharedTags {
		return a.sharedTags > b.sharedTags
	}
	if a.sharedSpeakers != b.sharedSpeakers {
		return a.sharedSpeakers > b.sharedSpeakers
	}
	if a.sameEpisode != b.sameEpisode {
		return a.sameEpisode
	}
	if a.score != b.score {
		return a.score > b.score
	}
	if !a.rec.Date.Equal(b.rec.Date) {
		return a.rec.Date.After(b.rec.Date)
	}
	return a.rec.Title < b.rec.Title
}

// selection accumulates picks and the tags, speakers and episodes they cover.
type selection struct {
	limit    int
	picked   []*candidate
	ids      map[string]bool
	tags     map[string]bool
	speakers map[string]bool
	episodes map[string]bool
}

func newSelection(limit int) *selection {
	return &selection{
		limit:    limit,
		ids:      map[string]bool{},
		tags:     map[string]bool{},
		speakers: map[string]bool{},
		episodes: map[string]bool{},
	}
}

func (s *selection) full() bool {
	return len(s.picked) >= s.limit
}

func (s *selection) add(c *candidate) {
	s.picked = append(s.picked, c)
	s.ids[c.rec.ID] = true
	for _, t := range c.rec.Tags {
		s.tags[t] = true
	}
	for _, sp := range c.rec.Speakers {
		s.speakers[normalizeSpeaker(sp)] = true
	}
	if c.rec.EpisodeID != "" {
		s.episodes[c.rec.EpisodeID] = true
	}
}

// admissible reports whether c may be picked in pass p.
func (s *selection) admissible(c *candidate, p pass) bool {
	if s.ids[c.rec.ID] || !p.admit(c) {
		return false
	}
	if !p.allowEpisodeReuse && c.rec.EpisodeID != "" && s.episodes[c.rec.EpisodeID] {
		return false
	}
	return true
}

// penalized is the base score minus overlap with what is already picked.
func (s *selection) penalized(c *candidate, penalizeOffTopic bool) int {
	score := c.score
	score -= usedTagPenalty * countShared(c.rec.Tags, s.tags, false)
	score -= usedSpeakerPenalty * countShared(c.rec.Speakers, s.speakers, true)
	if penalizeOffTopic && c.sharedTags == 0 {
		score -= offTopicPenalty
	}
	return score
}

// fill greedily adds the highest penalized candidate admitted by p until the selection is full
// or p has nothing left. Scores are recomputed after every pick.
func (s *selection) fill(cands []*candidate, p pass, penalizeOffTopic bool) {
	for !s.full() {
		var (
			best      *candidate
			bestScore int
		)
		for _, c := range cands {
			if !s.admissible(c, p) {
				continue
			}
			score := s.penalized(c, penalizeOffTopic)
			if best == nil || score > bestScore || (score == bestScore && newerOrFirst(c, best)) {
				best, bestScore = c, score
			}
		}
		if best == nil {
			return
		}
		s.add(best)
	}
}

func newerOrFirst(a, b *candidate) bool {
	if !a.rec.Date.Equal(b.rec.Date) {
		return a.rec.Date.After(b.rec.Date)
	}
	return a.rec.Title < b.rec.Title
}

func (s *selection) recordings() []domain.Recording {
	out := make([]domain.Recording, 0, len(s.picked))
	for _, c := range s.picked {
		out = append(out, c.rec)
	}
	return out
}

func hasAny(cands []*candidate, admit func(*candidate) bool) bool {
	for _, c := range cands {
		if admit(c) {
			return true
		}
	}
	return false
}

func normalizeSpeaker(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(values []string, speakers bool) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if speakers {
			v = normalizeSpeaker(v)
		}
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func countShared(values []string, set map[string]bool, speakers bool) int {
	n := 0
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if speakers {
			v = normalizeSpeaker(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		if set[v] {
			n++
		}
	}
	return n
}
