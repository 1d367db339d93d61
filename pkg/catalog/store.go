// Package catalog loads the recordings library from its location-partitioned datasets.
package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"meetup-library/pkg/domain"
)

//go:embed data/*.json
var embedded embed.FS

// EpisodesFile is the dataset holding episode metadata.
const EpisodesFile = "episodes.json"

// DateLayout is the calendar-date format used by the datasets.
const DateLayout = "2006-01-02"

var ErrNotFound = errors.New("recording not found")

// DatasetRecord is one recording as stored in a location dataset file.
type DatasetRecord struct {
	YoutubeID            string   `json:"youtubeId"`
	ShortID              string   `json:"shortId"`
	Slug                 string   `json:"slug"`
	Title                string   `json:"title"`
	Speakers             []string `json:"speakers"`
	Date                 string   `json:"date"`
	Thumbnail            string   `json:"thumbnail"`
	FeatureHeroThumbnail string   `json:"featureHeroThumbnail,omitempty"`
	Description          *string  `json:"description"`
	Tags                 []string `json:"tags"`
	EpisodeID            string   `json:"episodeId,omitempty"`
}

type datasetEpisode struct {
	ID     string  `json:"id"`
	City   string  `json:"city"`
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Date   *string `json:"date"`
}

// DatasetFile returns the dataset file name for a location, e.g. "prague.json".
func DatasetFile(loc domain.Location) string {
	return loc.City() + ".json"
}

// Store memoizes the normalized recording list.
type Store struct {
	fsys fs.FS

	once       sync.Once
	recordings []domain.Recording
	byShortID  map[string]int
	err        error
}

// NewStore creates a store reading datasets from fsys. A nil fsys uses the embedded datasets.
func NewStore(fsys fs.FS) *Store {
	if fsys == nil {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			// embedded layout is fixed at build time
			panic(err)
		}
		fsys = sub
	}
	return &Store{fsys: fsys}
}

// NewStoreFromRecordings creates a store over an already-normalized list. Used by tests and tools.
func NewStoreFromRecordings(recs []domain.Recording) *Store {
	s := &Store{}
	s.once.Do(func() {
		s.recordings = slices.Clone(recs)
		s.index()
	})
	return s
}

// All returns every recording sorted by date descending. The slice is a copy.
func (s *Store) All(_ context.Context) ([]domain.Recording, error) {
	s.once.Do(func() {
		s.recordings, s.err = Load(s.fsys)
		s.index()
	})
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.recordings), nil
}

// ByShortID looks a recording up by its short public id.
func (s *Store) ByShortID(ctx context.Context, shortID string) (domain.Recording, error) {
	if _, err := s.All(ctx); err != nil {
		return domain.Recording{}, err
	}
	i, ok := s.byShortID[shortID]
	if !ok {
		return domain.Recording{}, fmt.Errorf("%w: %s", ErrNotFound, shortID)
	}
	return s.recordings[i], nil
}

func (s *Store) index() {
	s.byShortID = make(map[string]int, len(s.recordings))
	for i, r := range s.recordings {
		s.byShortID[r.ShortID] = i
	}
}

// Load merges the location datasets found in fsys, tags each record with its location,
// lowercases tags, joins episode metadata and sorts by date descending.
// Recordings sharing a date keep dataset order: Prague before Zlin, then file order.
func Load(fsys fs.FS) ([]domain.Recording, error) {
	episodes, err := LoadEpisodes(fsys)
	if err != nil {
		return nil, err
	}

	var out []domain.Recording
	for _, loc := range domain.Locations {
		records, err := ReadDataset(fsys, DatasetFile(loc))
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			r, err := normalize(rec, loc, episodes)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", DatasetFile(loc), err)
			}
			out = append(out, r)
		}
	}

	SortByDateDesc(out)
	return out, nil
}

// ReadDataset decodes one location dataset file. A missing file yields no records.
func ReadDataset(fsys fs.FS, name string) ([]DatasetRecord, error) {
	raw, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", name, err)
	}

	var records []DatasetRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", name, err)
	}
	return records, nil
}

// LoadEpisodes decodes the episode dataset into a lookup keyed by episode id.
func LoadEpisodes(fsys fs.FS) (map[string]domain.Episode, error) {
	raw, err := fs.ReadFile(fsys, EpisodesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.Episode{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read episodes: %w", err)
	}

	var items []datasetEpisode
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode episodes: %w", err)
	}

	out := make(map[string]domain.Episode, len(items))
	for _, it := range items {
		ep := domain.Episode{
			ID:     it.ID,
			City:   strings.ToLower(it.City),
			Number: it.Number,
			Title:  it.Title,
		}
		if it.Date != nil && *it.Date != "" {
			d, err := time.Parse(DateLayout, *it.Date)
			if err != nil {
				return nil, fmt.Errorf("episode %s: parse date: %w", it.ID, err)
			}
			ep.Date = &d
		}
		out[ep.ID] = ep
	}
	return out, nil
}

// SortByDateDesc sorts recordings newest first, keeping the relative order of equal dates.
func SortByDateDesc(recs []domain.Recording) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date.After(recs[j].Date)
	})
}

func normalize(rec DatasetRecord, loc domain.Location, episodes map[string]domain.Episode) (domain.Recording, error) {
	date, err := time.Parse(DateLayout, rec.Date)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("recording %s: parse date: %w", rec.YoutubeID, err)
	}

	r := domain.Recording{
		ID:                   rec.YoutubeID,
		ShortID:              rec.ShortID,
		Slug:                 rec.Slug,
		Title:                rec.Title,
		Speakers:             slices.Clone(rec.Speakers),
		Date:                 date,
		Thumbnail:            rec.Thumbnail,
		FeatureHeroThumbnail: rec.FeatureHeroThumbnail,
		Description:          rec.Description,
		Tags:                 LowercaseTags(rec.Tags),
		Location:             loc,
		EpisodeID:            rec.EpisodeID,
	}
	if r.Speakers == nil {
		r.Speakers = []string{}
	}

	if ep, ok := episodes[rec.EpisodeID]; ok && rec.EpisodeID != "" {
		r.Episode = ep.Title
		r.EpisodeNumber = ep.Number
	}
	return r, nil
}

// LowercaseTags lowercases and trims tags, dropping empties and duplicates while keeping order.
func LowercaseTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
