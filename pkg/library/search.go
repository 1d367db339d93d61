package library

import (
	"sort"

	"meetup-library/pkg/domain"
)

// locationNames are the searchable display names of each location.
var locationNames = map[domain.Location][]string{
	domain.LocationPrague: {"Prague", "Praha"},
	domain.LocationZlin:   {"Zlín"},
}

// Entry is a recording with its precomputed, normalized search fields.
type Entry struct {
	Recording domain.Recording
	fields    []string
}

// NewEntry normalizes the searchable fields of rec: title, each speaker, each tag, location,
// episode title and plain-text description. Fields are matched one by one.
func NewEntry(rec domain.Recording) *Entry {
	parts := []string{rec.Title}
	parts = append(parts, rec.Speakers...)
	parts = append(parts, rec.Tags...)
	parts = append(parts, string(rec.Location))
	parts = append(parts, locationNames[rec.Location]...)
	parts = append(parts, rec.Episode)
	if desc := rec.DescriptionText(); desc != "" {
		parts = append(parts, PlainText(desc))
	}

	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			fields = append(fields, n)
		}
	}
	return &Entry{Recording: rec, fields: fields}
}

// Option is one choice in a tag or episode picker with the number of recordings behind it.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Result is a filtered listing with the picker options that fit it.
type Result struct {
	Recordings []domain.Recording `json:"recordings"`
	Filter     Filter             `json:"filter"`
	Total      int                `json:"total"`
	Tags       []Option           `json:"tags"`
	Episodes   []Option           `json:"episodes"`
}

// Index holds the catalog prepared for repeated searches. It is read-only and safe for
// concurrent use.
type Index struct {
	entries []*Entry
}

// NewIndex prepares recs, keeping their order.
func NewIndex(recs []domain.Recording) *Index {
	entries := make([]*Entry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, NewEntry(rec))
	}
	return &Index{entries: entries}
}

// Len returns the number of indexed recordings.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Search returns the recordings matching every field of f, in catalog order.
// Tag options come from recordings matching everything but the tag, episode options from
// recordings matching everything but the episode, so pickers only offer reachable choices.
func (idx *Index) Search(f Filter) Result {
	location := LocationMatcher{Location: f.Location}
	tag := TagMatcher{Tag: f.Tag}
	ep := EpisodeMatcher{EpisodeID: f.Episode}
	query := NewQueryMatcher(f.Query)

	matched := filterEntries(idx.entries, location, tag, ep, query)
	recs := make([]domain.Recording, 0, len(matched))
	for _, e := range matched {
		recs = append(recs, e.Recording)
	}

	return Result{
		Recordings: recs,
		Filter:     f,
		Total:      len(recs),
		Tags:       tagOptions(filterEntries(idx.entries, location, ep, query)),
		Episodes:   episodeOptions(filterEntries(idx.entries, location, tag, query)),
	}
}

// Search is a one-shot search over recs.
func Search(recs []domain.Recording, f Filter) Result {
	return NewIndex(recs).Search(f)
}

// tagOptions counts tags across entries, most used first, then alphabetically.
func tagOptions(entries []*Entry) []Option {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, t := range e.Recording.Tags {
			counts[t]++
		}
	}
	out := make([]Option, 0, len(counts))
	for t, n := range counts {
		out = append(out, Option{Value: t, Label: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// episodeOptions lists episodes in order of their newest recording.
func episodeOptions(entries []*Entry) []Option {
	index := make(map[string]int)
	out := make([]Option, 0)
	for _, e := range entries {
		rec := e.Recording
		if rec.EpisodeID == "" {
			continue
		}
		if i, ok := index[rec.EpisodeID]; ok {
			out[i].Count++
			continue
		}
		label := rec.Episode
		if label == "" {
			label = rec.EpisodeID
		}
		index[rec.EpisodeID] = len(out)
		out = append(out, Option{Value: rec.EpisodeID, Label: label, Count: 1})
	}
	return out
}
