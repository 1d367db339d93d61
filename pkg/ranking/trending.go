package ranking

import (
	"context"
	"sort"
	"time"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/domain"
)

const (
	trendingLikeWeight    = 3
	trendingBoostWeight   = 5
	trendingFeaturedBonus = 3
)

var trendingRecency = []step{
	{maxDays: 120, bonus: 10},
	{maxDays: 240, bonus: 7},
	{maxDays: 365, bonus: 4},
	{maxDays: 540, bonus: 2},
}

// Trending returns up to limit recordings ranked by engagement, recency and featuring,
// spread across locations and calendar quarters.
func (e *Engine) Trending(ctx context.Context, limit int) ([]domain.TrendingRecording, error) {
	if limit <= 0 {
		return []domain.TrendingRecording{}, nil
	}
	return cache.Remember(ctx, e.cache, cache.Key("trending", limit), TrendingTTL, nil,
		func(ctx context.Context) ([]domain.TrendingRecording, error) {
			recs, counts, err := e.loadWithCounts(ctx)
			if err != nil {
				return nil, err
			}
			out := SelectTrending(recs, counts, e.clock.Now(), limit)
			e.logger.Debug().Int("limit", limit).Int("selected", len(out)).Msg("computed trending")
			return out, nil
		})
}

// TrendingScore returns likes*3 + boosts*5 + the recency step bonus + 3 when featured.
func TrendingScore(rec domain.Recording, likes, boosts int, now time.Time) int {
	score := likes*trendingLikeWeight + boosts*trendingBoostWeight
	score += recencyBonus(rec.DaysSince(now), trendingRecency)
	if rec.Featured() {
		score += trendingFeaturedBonus
	}
	return score
}

// SelectTrending scores recs and picks up to limit of them. A candidate is admitted only while its
// location holds fewer than ceil(limit/2) picks and its quarter fewer than max(1, ceil(limit/3));
// remaining slots are backfilled from the sorted list without caps.
func SelectTrending(recs []domain.Recording, counts domain.EngagementCounts, now time.Time, limit int) []domain.TrendingRecording {
	scored := make([]domain.TrendingRecording, 0, len(recs))
	for _, rec := range recs {
		likes, boosts := counts.LikesFor(rec.ShortID), counts.BoostsFor(rec.ShortID)
		scored = append(scored, domain.TrendingRecording{
			Recording:     rec,
			LikeCount:     likes,
			BoostCount:    boosts,
			TrendingScore: TrendingScore(rec, likes, boosts, now),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].TrendingScore != scored[j].TrendingScore {
			return scored[i].TrendingScore > scored[j].TrendingScore
		}
		return scored[i].Date.After(scored[j].Date)
	})

	locationCap := ceilHalf(limit)
	quarterCap := max(1, ceilThird(limit))

	out := make([]domain.TrendingRecording, 0, min(limit, len(scored)))
	used := make(map[string]bool, limit)
	perLocation := make(map[domain.Location]int)
	perQuarter := make(map[string]int)

	for _, rec := range scored {
		if len(out) >= limit {
			break
		}
		quarter := rec.Quarter()
		if perLocation[rec.Location] >= locationCap || perQuarter[quarter] >= quarterCap {
			continue
		}
		out = append(out, rec)
		used[rec.ID] = true
		perLocation[rec.Location]++
		perQuarter[quarter]++
	}

	for _, rec := range scored {
		if len(out) >= limit {
			break
		}
		if used[rec.ID] {
			continue
		}
		out = append(out, rec)
		used[rec.ID] = true
	}
	return out
}
