// Package engagement aggregates like and boost counts per recording.
package engagement

import (
	"context"
	"fmt"
	"sort"

	supabase "github.com/supabase-community/supabase-go"

	"meetup-library/pkg/db"
	"meetup-library/pkg/domain"
)

// Tables holding one row per like or boost event, keyed by the recording short id.
const (
	LikesTable  = "video_likes"
	BoostsTable = "video_boosts"
)

// Source is a persistent store that can group engagement events by video.
type Source interface {
	// CountByVideo returns per-video counts for table, highest count first.
	// limit <= 0 returns every video.
	CountByVideo(ctx context.Context, table string, limit int) ([]domain.VideoCount, error)
}

var _ Source = (*db.Client)(nil)

func checkTable(table string) error {
	if table != LikesTable && table != BoostsTable {
		return fmt.Errorf("unknown engagement table %q", table)
	}
	return nil
}

// SQLSource runs the grouped count directly against Postgres.
type SQLSource struct {
	pg db.DBProvider
}

// NewSQLSource creates a source over a Postgres or Supabase handle.
func NewSQLSource(pg db.DBProvider) *SQLSource {
	return &SQLSource{pg: pg}
}

// CountByVideo implements Source.
func (s *SQLSource) CountByVideo(ctx context.Context, table string, limit int) ([]domain.VideoCount, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if s.pg == nil || s.pg.DB() == nil {
		return nil, fmt.Errorf("postgres DB not connected")
	}

	query := fmt.Sprintf(`SELECT video_id, COUNT(*) AS c FROM %s GROUP BY video_id ORDER BY c DESC, video_id`, table)
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pg.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s counts: %w", table, err)
	}
	defer rows.Close()

	var out []domain.VideoCount
	for rows.Next() {
		var vc domain.VideoCount
		if err := rows.Scan(&vc.VideoID, &vc.Count); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", table, err)
		}
		out = append(out, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// RESTSource reads events through the Supabase REST API and groups them locally.
// Used when only the project URL and API key are configured.
type RESTSource struct {
	client   *supabase.Client
	pageSize int
}

// NewRESTSource creates a source over the Supabase SDK client.
func NewRESTSource(client *supabase.Client) *RESTSource {
	return &RESTSource{client: client, pageSize: 1000}
}

// CountByVideo implements Source.
func (s *RESTSource) CountByVideo(ctx context.Context, table string, limit int) ([]domain.VideoCount, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	counts := make(map[string]int)
	for from := 0; ; from += s.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rows []struct {
			VideoID string `json:"video_id"`
		}
		_, err := s.client.From(table).
			Select("video_id", "", false).
			Order("video_id", nil).
			Range(from, from+s.pageSize-1, "").
			ExecuteTo(&rows)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}

		for _, r := range rows {
			if r.VideoID != "" {
				counts[r.VideoID]++
			}
		}
		if len(rows) < s.pageSize {
			break
		}
	}

	return rankCounts(counts, limit), nil
}

// rankCounts orders grouped counts highest first, ties by video id, and truncates to limit.
func rankCounts(counts map[string]int, limit int) []domain.VideoCount {
	out := make([]domain.VideoCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.VideoCount{VideoID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].VideoID < out[j].VideoID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
