// Package library filters and searches the recordings catalog.
package library

import (
	"net/url"
	"strings"

	"meetup-library/pkg/domain"
)

// Query parameter names used in library URLs.
const (
	ParamLocation = "location"
	ParamTag      = "tag"
	ParamEpisode  = "episode"
	ParamQuery    = "q"
)

// Filter is the catalog filter state mirrored in the URL query.
type Filter struct {
	Location domain.Location `json:"location,omitempty"`
	Tag      string          `json:"tag,omitempty"`
	Episode  string          `json:"episode,omitempty"`
	Query    string          `json:"q,omitempty"`
}

// ParseFilter reads filter state from URL query values. Unknown locations are ignored and the
// tag is lowercased to match normalized recording tags.
func ParseFilter(values url.Values) Filter {
	var f Filter
	if loc, err := domain.ParseLocation(values.Get(ParamLocation)); err == nil {
		f.Location = loc
	}
	f.Tag = strings.ToLower(strings.TrimSpace(values.Get(ParamTag)))
	f.Episode = strings.TrimSpace(values.Get(ParamEpisode))
	f.Query = strings.TrimSpace(values.Get(ParamQuery))
	return f
}

// Values encodes the non-empty fields as URL query values.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Location != "" {
		v.Set(ParamLocation, f.Location.City())
	}
	if f.Tag != "" {
		v.Set(ParamTag, f.Tag)
	}
	if f.Episode != "" {
		v.Set(ParamEpisode, f.Episode)
	}
	if f.Query != "" {
		v.Set(ParamQuery, f.Query)
	}
	return v
}

// Encode returns the query string for f with keys in sorted order.
func (f Filter) Encode() string {
	return f.Values().Encode()
}

// IsZero reports whether no filter is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// WithQuery returns a copy of f with the search query replaced.
func (f Filter) WithQuery(q string) Filter {
	f.Query = strings.TrimSpace(q)
	return f
}
