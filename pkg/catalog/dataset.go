package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"meetup-library/pkg/domain"
)

// MergeDataset appends added to existing, skipping youtube ids already present, and sorts the
// result newest first. Records sharing a date keep their relative order, existing ones first.
func MergeDataset(existing, added []DatasetRecord) []DatasetRecord {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]DatasetRecord, 0, len(existing)+len(added))
	for _, group := range [][]DatasetRecord{existing, added} {
		for _, rec := range group {
			if _, dup := seen[rec.YoutubeID]; dup {
				continue
			}
			seen[rec.YoutubeID] = struct{}{}
			out = append(out, rec)
		}
	}
	// DateLayout sorts lexically.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// WriteDataset replaces the dataset file of loc under dir.
func WriteDataset(dir string, loc domain.Location, records []DatasetRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset %s: %w", DatasetFile(loc), err)
	}
	path := filepath.Join(dir, DatasetFile(loc))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace dataset %s: %w", path, err)
	}
	return nil
}
