package ranking

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/domain"
)

// MemberPicks returns up to limit recordings ranked by member boosts. Short results are filled with
// the newest featured recordings, then the newest of the rest.
func (e *Engine) MemberPicks(ctx context.Context, limit int) ([]domain.MemberPick, error) {
	if limit <= 0 {
		return []domain.MemberPick{}, nil
	}
	return cache.Remember(ctx, e.cache, cache.Key("member-picks", limit), MemberPicksTTL, nil,
		func(ctx context.Context) ([]domain.MemberPick, error) {
			var (
				recs    []domain.Recording
				boosted []domain.VideoCount
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				recs, err = e.recordings.All(gctx)
				if err != nil {
					return fmt.Errorf("load recordings: %w", err)
				}
				return nil
			})
			if e.engagement != nil {
				g.Go(func() error {
					boosted = e.engagement.TopBoosted(gctx, limit*2)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}

			out := SelectMemberPicks(recs, boosted, limit)
			e.logger.Debug().Int("limit", limit).Int("boosted", len(boosted)).Int("selected", len(out)).Msg("computed member picks")
			return out, nil
		})
}

// SelectMemberPicks joins boosted rows to recordings by short id, dropping unknown ids, and
// keeps the top limit by boost count before backfilling.
func SelectMemberPicks(recs []domain.Recording, boosted []domain.VideoCount, limit int) []domain.MemberPick {
	byShortID := make(map[string]domain.Recording, len(recs))
	for _, rec := range recs {
		if _, dup := byShortID[rec.ShortID]; !dup {
			byShortID[rec.ShortID] = rec
		}
	}

	picks := make([]domain.MemberPick, 0, len(boosted))
	seen := make(map[string]bool, len(boosted))
	for _, row := range boosted {
		rec, ok := byShortID[row.VideoID]
		if !ok || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		picks = append(picks, domain.MemberPick{Recording: rec, BoostCount: row.Count})
	}
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].BoostCount > picks[j].BoostCount
	})
	if len(picks) > limit {
		picks = picks[:limit]
	}
	if len(picks) >= limit {
		return picks
	}

	used := make(map[string]bool, limit)
	for _, p := range picks {
		used[p.ID] = true
	}

	newest := make([]domain.Recording, 0, len(recs))
	for _, rec := range recs {
		if !used[rec.ID] {
			newest = append(newest, rec)
		}
	}
	sort.SliceStable(newest, func(i, j int) bool {
		return newest[i].Date.After(newest[j].Date)
	})

	for _, featuredOnly := range []bool{true, false} {
		for _, rec := range newest {
			if len(picks) >= limit {
				return picks
			}
			if used[rec.ID] || (featuredOnly && !rec.Featured()) {
				continue
			}
			picks = append(picks, domain.MemberPick{Recording: rec})
			used[rec.ID] = true
		}
	}
	return picks
}
