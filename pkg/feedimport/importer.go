// Package feedimport pulls new recordings from the YouTube channel feeds of each meetup city.
package feedimport

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"

	"meetup-library/pkg/catalog"
	"meetup-library/pkg/domain"
	"meetup-library/pkg/httpclient"
	"meetup-library/pkg/library"
	"meetup-library/pkg/worker"
)

// Feed is a channel feed publishing the recordings of one location.
type Feed struct {
	Location domain.Location `koanf:"location"`
	URL      string          `koanf:"url"`
}

// Config holds importer settings.
type Config struct {
	Workers int
	Logger  zerolog.Logger
}

// Importer fetches feeds and converts their entries into dataset records.
type Importer struct {
	http    *httpclient.HTTPClient
	workers int
	logger  zerolog.Logger
}

// NewImporter creates an importer.
func NewImporter(cfg Config) *Importer {
	if cfg.Workers < 1 {
		cfg.Workers = 2
	}
	return &Importer{
		http:    httpclient.NewClient(httpclient.FeedClient),
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}
}

// Import fetches every feed and returns the records whose youtube ids are not in known,
// grouped by location. A failing feed is logged and skipped unless every feed fails.
func (imp *Importer) Import(ctx context.Context, feeds []Feed, known []domain.Recording) (map[domain.Location][]catalog.DatasetRecord, error) {
	seen := make(map[string]struct{}, len(known))
	for _, r := range known {
		seen[r.ID] = struct{}{}
	}

	m := worker.NewManager(imp.workers, imp.fetch, imp.logger)
	results, err := m.Process(ctx, feeds)
	if err != nil {
		return nil, fmt.Errorf("import feeds: %w", err)
	}

	out := make(map[domain.Location][]catalog.DatasetRecord)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, rec := range res.Value {
			if _, dup := seen[rec.YoutubeID]; dup {
				continue
			}
			seen[rec.YoutubeID] = struct{}{}
			out[res.Job.Location] = append(out[res.Job.Location], rec)
		}
	}
	return out, nil
}

func (imp *Importer) fetch(ctx context.Context, f Feed) ([]catalog.DatasetRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	resp, err := imp.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", f.URL, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.URL, err)
	}

	records := make([]catalog.DatasetRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		rec, ok := ToRecord(item)
		if !ok {
			imp.logger.Debug().Str("feed", f.URL).Str("link", item.Link).Msg("skipping entry without video id or date")
			continue
		}
		records = append(records, rec)
	}
	imp.logger.Info().Str("location", string(f.Location)).Int("entries", len(records)).Msg("feed fetched")
	return records, nil
}

// ToRecord converts a feed entry into a dataset record. Titles of the form
// "Talk | Speaker One, Speaker Two" carry the speakers after the bar.
func ToRecord(item *gofeed.Item) (catalog.DatasetRecord, bool) {
	id := VideoID(item)
	if id == "" || item.PublishedParsed == nil {
		return catalog.DatasetRecord{}, false
	}

	group := child(item.Extensions, "media", "group")
	title, speakers := splitTitle(item.Title)

	rec := catalog.DatasetRecord{
		YoutubeID: id,
		ShortID:   ShortID(id),
		Slug:      Slugify(title),
		Title:     title,
		Speakers:  speakers,
		Date:      item.PublishedParsed.UTC().Format(catalog.DateLayout),
		Thumbnail: "https://i.ytimg.com/vi/" + id + "/maxresdefault.jpg",
		Tags:      []string{},
	}
	if group != nil {
		if th := first(group.Children["thumbnail"]); th != nil && th.Attrs["url"] != "" {
			rec.Thumbnail = th.Attrs["url"]
		}
		if d := first(group.Children["description"]); d != nil && strings.TrimSpace(d.Value) != "" {
			desc := "<p>" + html.EscapeString(strings.TrimSpace(d.Value)) + "</p>"
			rec.Description = &desc
		}
		if kw := first(group.Children["keywords"]); kw != nil {
			rec.Tags = catalog.LowercaseTags(strings.Split(kw.Value, ","))
		}
	}
	return rec, true
}

// VideoID returns the yt:videoId of an entry, falling back to the v= parameter of its link.
func VideoID(item *gofeed.Item) string {
	if vals := item.Extensions["yt"]["videoId"]; len(vals) > 0 && vals[0].Value != "" {
		return strings.TrimSpace(vals[0].Value)
	}
	if i := strings.Index(item.Link, "v="); i >= 0 {
		id := item.Link[i+2:]
		if j := strings.IndexByte(id, '&'); j >= 0 {
			id = id[:j]
		}
		return id
	}
	return ""
}

// ShortID derives the public short id from a youtube id.
func ShortID(youtubeID string) string {
	id := strings.ToLower(youtubeID)
	if len(id) > 6 {
		id = id[:6]
	}
	return id
}

// Slugify turns a title into a URL slug, dropping diacritics.
func Slugify(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range library.Normalize(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

func splitTitle(raw string) (string, []string) {
	title, names, found := strings.Cut(raw, " | ")
	title = strings.TrimSpace(title)
	speakers := []string{}
	if !found {
		return title, speakers
	}
	for _, n := range strings.Split(names, ",") {
		if n = strings.TrimSpace(n); n != "" {
			speakers = append(speakers, n)
		}
	}
	return title, speakers
}

func child(e ext.Extensions, prefix, name string) *ext.Extension {
	return first(e[prefix][name])
}

func first(vals []ext.Extension) *ext.Extension {
	if len(vals) == 0 {
		return nil
	}
	return &vals[0]
}
