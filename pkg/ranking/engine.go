// Package ranking computes the trending, hot, member-picks and hidden-gems lists of recordings.
//
// Every engine reads the full recording set and, where needed, the engagement counts, scores the
// recordings with its own formula and backfills when the scored set is shorter than the limit.
// Engagement store failures never surface here: the counter degrades them to zero counts.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/clock"
	"meetup-library/pkg/domain"
)

// Cache windows per list.
const (
	TrendingTTL    = time.Hour
	HotTTL         = 30 * time.Minute
	MemberPicksTTL = time.Hour
	HiddenGemsTTL  = 24 * time.Hour
)

// HiddenGemsTag marks cached hidden-gems lists for external invalidation.
const HiddenGemsTag = "hidden-gems"

// Recordings provides the canonical, date-descending recording set.
type Recordings interface {
	All(ctx context.Context) ([]domain.Recording, error)
}

// Engagement provides like and boost counts. Implementations fail soft.
type Engagement interface {
	Fetch(ctx context.Context) domain.EngagementCounts
	TopBoosted(ctx context.Context, limit int) []domain.VideoCount
}

// Engine ranks recordings. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	recordings Recordings
	engagement Engagement
	cache      cache.Cache
	clock      clock.Clock
	logger     zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCache stores computed lists in c.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine. Without options it does not cache and uses the system clock.
func NewEngine(recordings Recordings, engagement Engagement, opts ...Option) *Engine {
	e := &Engine{
		recordings: recordings,
		engagement: engagement,
		cache:      cache.Nop{},
		clock:      clock.System{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InvalidateHiddenGems drops every cached hidden-gems list.
func (e *Engine) InvalidateHiddenGems(ctx context.Context) error {
	if err := e.cache.InvalidateTag(ctx, HiddenGemsTag); err != nil {
		return fmt.Errorf("invalidate %s: %w", HiddenGemsTag, err)
	}
	return nil
}

// loadWithCounts loads recordings and engagement counts concurrently.
func (e *Engine) loadWithCounts(ctx context.Context) ([]domain.Recording, domain.EngagementCounts, error) {
	var (
		recs   []domain.Recording
		counts = domain.EmptyEngagement()
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
			counts = e.engagement.Fetch(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, counts, err
	}
	return recs, counts, nil
}

// ceilHalf returns ceil(n/2).
func ceilHalf(n int) int {
	return (n + 1) / 2
}

// ceilThird returns ceil(n/3).
func ceilThird(n int) int {
	return (n + 2) / 3
}

// step is one threshold of a recency bonus table.
type step struct {
	maxDays int
	bonus   int
}

// recencyBonus returns the bonus of the first step whose threshold covers days.
func recencyBonus(days int, steps []step) int {
	for _, s := range steps {
		if days <= s.maxDays {
			return s.bonus
		}
	}
	return 0
}
