package ranking

import (
	"context"
	"sort"
	"time"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/domain"
)

const hotLikeWeight = 10

var hotRecency = []step{
	{maxDays: 90, bonus: 3},
	{maxDays: 180, bonus: 2},
	{maxDays: 365, bonus: 1},
}

// Hot returns up to limit liked recordings ranked mostly by likes, topped up with the oldest
// unliked recordings when too few have been liked.
func (e *Engine) Hot(ctx context.Context, limit int) ([]domain.HotRecording, error) {
	if limit <= 0 {
		return []domain.HotRecording{}, nil
	}
	return cache.Remember(ctx, e.cache, cache.Key("hot", limit), HotTTL, nil,
		func(ctx context.Context) ([]domain.HotRecording, error) {
			recs, counts, err := e.loadWithCounts(ctx)
			if err != nil {
				return nil, err
			}
			out := SelectHot(recs, counts, e.clock.Now(), limit)
			e.logger.Debug().Int("limit", limit).Int("selected", len(out)).Msg("computed hot picks")
			return out, nil
		})
}

// HotScore returns likes*10 plus the hot recency bonus.
func HotScore(rec domain.Recording, likes int, now time.Time) int {
	return likes*hotLikeWeight + recencyBonus(rec.DaysSince(now), hotRecency)
}

// SelectHot picks up to limit recordings with at least one like, at most ceil(limit/2)+1 per
// location. Short results are filled first with the remaining liked recordings in score order,
// then with the oldest unused recordings at zero likes and zero score.
func SelectHot(recs []domain.Recording, counts domain.EngagementCounts, now time.Time, limit int) []domain.HotRecording {
	liked := make([]domain.HotRecording, 0)
	for _, rec := range recs {
		likes := counts.LikesFor(rec.ShortID)
		if likes <= 0 {
			continue
		}
		liked = append(liked, domain.HotRecording{
			Recording: rec,
			LikeCount: likes,
			HotScore:  HotScore(rec, likes, now),
		})
	}
	sort.SliceStable(liked, func(i, j int) bool {
		if liked[i].HotScore != liked[j].HotScore {
			return liked[i].HotScore > liked[j].HotScore
		}
		return liked[i].LikeCount > liked[j].LikeCount
	})

	locationCap := ceilHalf(limit) + 1
	out := make([]domain.HotRecording, 0, limit)
	used := make(map[string]bool, limit)
	perLocation := make(map[domain.Location]int)

	for _, rec := range liked {
		if len(out) >= limit {
			break
		}
		if perLocation[rec.Location] >= locationCap {
			continue
		}
		out = append(out, rec)
		used[rec.ID] = true
		perLocation[rec.Location]++
	}

	for _, rec := range liked {
		if len(out) >= limit {
			break
		}
		if used[rec.ID] {
			continue
		}
		out = append(out, rec)
		used[rec.ID] = true
	}

	if len(out) >= limit {
		return out
	}

	classics := make([]domain.Recording, 0, len(recs))
	for _, rec := range recs {
		if !used[rec.ID] {
			classics = append(classics, rec)
		}
	}
	sort.SliceStable(classics, func(i, j int) bool {
		return classics[i].Date.Before(classics[j].Date)
	})
	for _, rec := range classics {
		if len(out) >= limit {
			break
		}
		out = append(out, domain.HotRecording{Recording: rec})
		used[rec.ID] = true
	}
	return out
}
