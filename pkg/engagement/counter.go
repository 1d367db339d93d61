package engagement

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/domain"
)

// CountsTTL is how long aggregated counts are reused.
const CountsTTL = 15 * time.Minute

// Counter fetches engagement counts and never fails: store errors degrade to empty counts.
type Counter struct {
	source Source
	cache  cache.Cache
	logger zerolog.Logger
}

// NewCounter creates a counter. A nil source always yields empty counts.
func NewCounter(source Source, c cache.Cache, logger zerolog.Logger) *Counter {
	if c == nil {
		c = cache.Nop{}
	}
	return &Counter{source: source, cache: c, logger: logger}
}

// Fetch returns like and boost counts keyed by short id.
// Successful results are cached for CountsTTL; failures are not cached.
func (c *Counter) Fetch(ctx context.Context) domain.EngagementCounts {
	counts, err := cache.Remember(ctx, c.cache, cache.Key("engagement-counts"), CountsTTL, nil, c.load)
	if err != nil {
		c.logger.Warn().Err(err).Msg("engagement counts unavailable, ranking without them")
		return domain.EmptyEngagement()
	}
	if counts.Likes == nil {
		counts.Likes = map[string]int{}
	}
	if counts.Boosts == nil {
		counts.Boosts = map[string]int{}
	}
	return counts
}

// TopBoosted returns up to limit boosted videos, highest boost count first.
// Store errors yield an empty list.
func (c *Counter) TopBoosted(ctx context.Context, limit int) []domain.VideoCount {
	if c.source == nil || limit <= 0 {
		return nil
	}
	rows, err := c.source.CountByVideo(ctx, BoostsTable, limit)
	if err != nil {
		c.logger.Warn().Err(err).Msg("boost counts unavailable")
		return nil
	}
	return rows
}

func (c *Counter) load(ctx context.Context) (domain.EngagementCounts, error) {
	out := domain.EmptyEngagement()
	if c.source == nil {
		return out, nil
	}

	var likes, boosts []domain.VideoCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likes, err = c.source.CountByVideo(gctx, LikesTable, 0)
		return err
	})
	g.Go(func() error {
		var err error
		boosts, err = c.source.CountByVideo(gctx, BoostsTable, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return out, err
	}

	for _, vc := range likes {
		out.Likes[vc.VideoID] = vc.Count
	}
	for _, vc := range boosts {
		out.Boosts[vc.VideoID] = vc.Count
	}
	return out, nil
}
