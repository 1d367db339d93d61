package catalog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetup-library/pkg/domain"
)

func TestMergeDataset(t *testing.T) {
	existing := []DatasetRecord{
		{YoutubeID: "a", Date: "2025-03-01"},
		{YoutubeID: "b", Date: "2024-01-01"},
	}
	added := []DatasetRecord{
		{YoutubeID: "c", Date: "2025-03-01"},
		{YoutubeID: "a", Date: "2026-01-01", Title: "dup"},
		{YoutubeID: "d", Date: "2026-02-02"},
	}

	got := MergeDataset(existing, added)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.YoutubeID
	}
	assert.Equal(t, []string{"d", "a", "c", "b"}, ids)
	assert.Empty(t, got[1].Title)
}

func TestWriteDataset_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	desc := "<p>hello</p>"
	records := []DatasetRecord{{
		YoutubeID: "yt-1", ShortID: "yt-1", Title: "Hello", Date: "2026-01-02",
		Speakers: []string{"Ada"}, Tags: []string{"go"}, Description: &desc,
	}}

	require.NoError(t, WriteDataset(dir, domain.LocationZlin, records))

	got, err := ReadDataset(os.DirFS(dir), "zlin.json")
	require.NoError(t, err)
	assert.Equal(t, records, got)

	_, err = os.Stat(dir + "/zlin.json.tmp")
	assert.True(t, os.IsNotExist(err))
}
