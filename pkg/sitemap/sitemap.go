// Package sitemap renders the sitemap of recording pages.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"meetup-library/pkg/domain"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Priorities of recording pages.
const (
	FeaturedPriority = "0.8"
	DefaultPriority  = "0.6"
)

// freshDays is the age below which a page is expected to change weekly.
const freshDays = 90

// Entry represents a single URL entry of a sitemap
type Entry struct {
	Location   string // absolute URL of the recording page
	LastMod    string // recording date, YYYY-MM-DD
	Priority   string
	ChangeFreq string
}

// urlSet represents a regular sitemap structure
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr,omitempty"`
	URLs    []urlEntry `xml:"url"`
}

// urlEntry represents a single URL entry in XML
type urlEntry struct {
	Location   string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// PagePath returns the site path of a recording page.
func PagePath(rec domain.Recording) string {
	return "/recordings/" + rec.ShortID + "/" + rec.Slug
}

// Build returns one entry per recording, in input order.
func Build(baseURL string, recs []domain.Recording, now time.Time) []Entry {
	base := strings.TrimRight(baseURL, "/")
	entries := make([]Entry, 0, len(recs))
	for _, r := range recs {
		e := Entry{
			Location:   base + PagePath(r),
			LastMod:    r.Date.Format("2006-01-02"),
			Priority:   DefaultPriority,
			ChangeFreq: "yearly",
		}
		if r.Featured() {
			e.Priority = FeaturedPriority
		}
		if r.DaysSince(now) <= freshDays {
			e.ChangeFreq = "weekly"
		}
		entries = append(entries, e)
	}
	return entries
}

// Write renders entries as a urlset document.
func Write(w io.Writer, entries []Entry) error {
	set := urlSet{XMLNS: Namespace, URLs: make([]urlEntry, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, urlEntry(e))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write sitemap header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return enc.Close()
}

// Parse reads a urlset document, skipping entries without a location.
func Parse(r io.Reader) ([]Entry, error) {
	var set urlSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap XML: %w", err)
	}

	entries := make([]Entry, 0, len(set.URLs))
	for _, u := range set.URLs {
		if u.Location != "" {
			entries = append(entries, Entry(u))
		}
	}
	return entries, nil
}
