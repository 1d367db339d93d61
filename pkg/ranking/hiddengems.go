package ranking

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/clock"
	"meetup-library/pkg/domain"
)

// Hidden gem eligibility.
const (
	gemMinAgeDays = 180
	gemMaxLikes   = 2
	gemMaxBoosts  = 0
	gemShuffleMod = 1000
)

// HiddenGems returns up to limit older recordings that have drawn little engagement, in an order
// that is fixed for a calendar day and changes from one day to the next.
func (e *Engine) HiddenGems(ctx context.Context, limit int) ([]domain.HiddenGem, error) {
	if limit <= 0 {
		return []domain.HiddenGem{}, nil
	}
	return cache.Remember(ctx, e.cache, cache.Key(HiddenGemsTag, limit), HiddenGemsTTL, []string{HiddenGemsTag},
		func(ctx context.Context) ([]domain.HiddenGem, error) {
			recs, counts, err := e.loadWithCounts(ctx)
			if err != nil {
				return nil, err
			}
			out := SelectHiddenGems(recs, counts, e.clock.Now(), limit)
			e.logger.Debug().Int("limit", limit).Int("selected", len(out)).Msg("computed hidden gems")
			return out, nil
		})
}

// SelectHiddenGems keeps recordings older than 180 days with at most two likes and no boosts,
// puts featured ones first and newest first, then applies the daily shuffle and truncates.
// It returns an empty slice when nothing qualifies.
func SelectHiddenGems(recs []domain.Recording, counts domain.EngagementCounts, now time.Time, limit int) []domain.HiddenGem {
	gems := make([]domain.HiddenGem, 0)
	for _, rec := range recs {
		likes, boosts := counts.LikesFor(rec.ShortID), counts.BoostsFor(rec.ShortID)
		if rec.DaysSince(now) <= gemMinAgeDays || likes > gemMaxLikes || boosts > gemMaxBoosts {
			continue
		}
		gems = append(gems, domain.HiddenGem{Recording: rec, LikeCount: likes, BoostCount: boosts})
	}

	sort.SliceStable(gems, func(i, j int) bool {
		if gems[i].Featured() != gems[j].Featured() {
			return gems[i].Featured()
		}
		return gems[i].Date.After(gems[j].Date)
	})

	seed := clock.DaySeed(now)
	sort.SliceStable(gems, func(i, j int) bool {
		return shuffleKey(gems[i].ShortID, seed) < shuffleKey(gems[j].ShortID, seed)
	})

	if len(gems) > limit {
		gems = gems[:limit]
	}
	return gems
}

// shuffleKey is (code point of the first short id character + seed) mod 1000.
// An empty short id counts as code point zero.
func shuffleKey(shortID string, seed int) int {
	first := 0
	if r, size := utf8.DecodeRuneInString(shortID); size > 0 {
		first = int(r)
	}
	return (first + seed) % gemShuffleMod
}
