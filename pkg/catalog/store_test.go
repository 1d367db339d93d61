package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetup-library/pkg/domain"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"prague.json": {Data: []byte(`[
			{"youtubeId":"p-old","shortId":"pold","title":"Old Prague","speakers":["A"],"date":"2023-01-10","tags":["Go","GO ","Rust"],"episodeId":"prague-1","description":null},
			{"youtubeId":"p-same","shortId":"psame","title":"Same Day Prague","speakers":["B"],"date":"2024-05-01","tags":["K8s"],"episodeId":"prague-2","description":"<b>hi</b>"}
		]`)},
		"zlin.json": {Data: []byte(`[
			{"youtubeId":"z-new","shortId":"znew","title":"New Zlin","speakers":[],"date":"2025-02-02","tags":["Frontend"]},
			{"youtubeId":"z-same","shortId":"zsame","title":"Same Day Zlin","date":"2024-05-01","tags":[]}
		]`)},
		"episodes.json": {Data: []byte(`[
			{"id":"prague-1","city":"Prague","number":1,"title":"Prague #1","date":"2023-01-10"},
			{"id":"prague-2","city":"prague","number":2,"title":"Prague #2","date":null}
		]`)},
	}
}

func TestLoad_NormalizesAndSorts(t *testing.T) {
	recs, err := Load(testFS())
	require.NoError(t, err)
	require.Len(t, recs, 4)

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	// equal dates keep dataset order: Prague before Zlin
	assert.Equal(t, []string{"z-new", "p-same", "z-same", "p-old"}, ids)

	for i := 1; i < len(recs); i++ {
		assert.False(t, recs[i].Date.After(recs[i-1].Date), "recordings must be sorted by date descending")
	}
	for _, r := range recs {
		for _, tag := range r.Tags {
			assert.Equal(t, strings.ToLower(tag), tag)
		}
	}
}

func TestLoad_TagsLocationAndEpisodes(t *testing.T) {
	recs, err := Load(testFS())
	require.NoError(t, err)

	byID := map[string]domain.Recording{}
	for _, r := range recs {
		byID[r.ID] = r
	}

	old := byID["p-old"]
	assert.Equal(t, []string{"go", "rust"}, old.Tags)
	assert.Equal(t, domain.LocationPrague, old.Location)
	assert.Equal(t, "Prague #1", old.Episode)
	assert.Equal(t, 1, old.EpisodeNumber)
	assert.Nil(t, old.Description)

	zlin := byID["z-same"]
	assert.Equal(t, domain.LocationZlin, zlin.Location)
	assert.Empty(t, zlin.Episode)
	assert.NotNil(t, zlin.Speakers)
	assert.NotNil(t, zlin.Tags)
}

func TestLoad_BadDate(t *testing.T) {
	fsys := fstest.MapFS{
		"prague.json": {Data: []byte(`[{"youtubeId":"x","shortId":"x","date":"10/01/2024"}]`)},
	}
	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prague.json")
}

func TestLoad_MissingDatasetsYieldEmpty(t *testing.T) {
	recs, err := Load(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := NewStore(testFS())
	ctx := context.Background()

	first, err := s.All(ctx)
	require.NoError(t, err)
	first[0].Title = "mutated"

	second, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New Zlin", second[0].Title)
}

func TestStore_ByShortID(t *testing.T) {
	s := NewStore(testFS())
	ctx := context.Background()

	r, err := s.ByShortID(ctx, "psame")
	require.NoError(t, err)
	assert.Equal(t, "p-same", r.ID)

	_, err = s.ByShortID(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Embedded(t *testing.T) {
	recs, err := NewStore(nil).All(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	seen := map[string]bool{}
	for i, r := range recs {
		assert.False(t, seen[r.ID], "duplicate youtube id %s", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.ShortID)
		if i > 0 {
			assert.False(t, r.Date.After(recs[i-1].Date))
		}
	}
}

func TestLowercaseTags(t *testing.T) {
	assert.Equal(t, []string{"go", "k8s"}, LowercaseTags([]string{" Go", "", "K8s", "go"}))
	assert.Equal(t, []string{}, LowercaseTags(nil))
}
