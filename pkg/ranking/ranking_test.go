package ranking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/catalog"
	"meetup-library/pkg/clock"
	"meetup-library/pkg/domain"
)

var testNow = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

// midnight drops the time of day, as dataset dates carry none.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(id string, loc domain.Location, date time.Time) domain.Recording {
	return domain.Recording{
		ID:       "yt-" + id,
		ShortID:  id,
		Title:    "Talk " + id,
		Date:     date,
		Location: loc,
		Tags:     []string{},
	}
}

func featured(r domain.Recording) domain.Recording {
	r.FeatureHeroThumbnail = "https://img.example/" + r.ShortID + "-hero.jpg"
	return r
}

// fakeEngagement serves fixed counts and records TopBoosted limits.
type fakeEngagement struct {
	mu       sync.Mutex
	counts   domain.EngagementCounts
	boosted  []domain.VideoCount
	fetches  int
	boostLim []int
}

func (f *fakeEngagement) Fetch(context.Context) domain.EngagementCounts {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.counts
}

func (f *fakeEngagement) TopBoosted(_ context.Context, limit int) []domain.VideoCount {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boostLim = append(f.boostLim, limit)
	return f.boosted
}

type failingRecordings struct{}

func (failingRecordings) All(context.Context) ([]domain.Recording, error) {
	return nil, errors.New("dataset unreadable")
}

func counts(likes, boosts map[string]int) domain.EngagementCounts {
	c := domain.EmptyEngagement()
	for k, v := range likes {
		c.Likes[k] = v
	}
	for k, v := range boosts {
		c.Boosts[k] = v
	}
	return c
}

func TestTrendingScore(t *testing.T) {
	tests := []struct {
		name   string
		rec    domain.Recording
		likes  int
		boosts int
		want   int
	}{
		{"fresh featured", featured(rec("a", domain.LocationPrague, daysAgo(100))), 2, 1, 6 + 5 + 10 + 3},
		{"boundary 120", rec("b", domain.LocationPrague, daysAgo(120)), 0, 0, 10},
		{"dataset date at midnight, 120 days", rec("m", domain.LocationPrague, midnight(daysAgo(120))), 0, 0, 10},
		{"dataset date at midnight, 121 days", rec("n", domain.LocationPrague, midnight(daysAgo(121))), 0, 0, 7},
		{"240 days", rec("c", domain.LocationPrague, daysAgo(200)), 1, 0, 3 + 7},
		{"365 days", rec("d", domain.LocationZlin, daysAgo(300)), 0, 0, 4},
		{"540 days", rec("e", domain.LocationZlin, daysAgo(500)), 0, 2, 10 + 2},
		{"old", rec("f", domain.LocationZlin, daysAgo(600)), 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrendingScore(tt.rec, tt.likes, tt.boosts, testNow))
		})
	}
}

func TestSelectTrending_LocationCap(t *testing.T) {
	recs := []domain.Recording{
		rec("p1", domain.LocationPrague, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		rec("p2", domain.LocationPrague, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)),
		rec("p3", domain.LocationPrague, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)),
		rec("p4", domain.LocationPrague, time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)),
		rec("z1", domain.LocationZlin, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		rec("z2", domain.LocationZlin, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)),
	}
	c := counts(map[string]int{"p1": 40, "p2": 30, "p3": 20, "p4": 10, "z1": 2, "z2": 1}, nil)

	got := SelectTrending(recs, c, testNow, 4)
	assert.Equal(t, []string{"p1", "p2", "z1", "z2"}, trendingIDs(got))
}

func TestSelectTrending_QuarterCap(t *testing.T) {
	recs := []domain.Recording{
		rec("p1", domain.LocationPrague, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
		rec("z1", domain.LocationZlin, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		rec("z2", domain.LocationZlin, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		rec("p2", domain.LocationPrague, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
	}
	c := counts(map[string]int{"p1": 40, "z1": 30, "z2": 20, "p2": 10}, nil)

	got := SelectTrending(recs, c, testNow, 3)
	assert.Equal(t, []string{"p1", "z2", "p2"}, trendingIDs(got))
}

func TestSelectTrending_BackfillIgnoresCaps(t *testing.T) {
	recs := []domain.Recording{
		rec("p1", domain.LocationPrague, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		rec("p2", domain.LocationPrague, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)),
		rec("p3", domain.LocationPrague, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)),
		rec("p4", domain.LocationPrague, time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)),
		rec("p5", domain.LocationPrague, time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)),
	}
	c := counts(map[string]int{"p1": 50, "p2": 40, "p3": 30, "p4": 20, "p5": 10}, nil)

	got := SelectTrending(recs, c, testNow, 4)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, trendingIDs(got))
}

func TestSelectTrending_TieBreaksByDate(t *testing.T) {
	recs := []domain.Recording{
		rec("older", domain.LocationPrague, daysAgo(700)),
		rec("newer", domain.LocationZlin, daysAgo(600)),
	}
	got := SelectTrending(recs, domain.EmptyEngagement(), testNow, 2)
	assert.Equal(t, []string{"newer", "older"}, trendingIDs(got))
}

func TestSelectTrending_NeverExceedsLimit(t *testing.T) {
	recs := []domain.Recording{
		rec("a", domain.LocationPrague, daysAgo(10)),
		rec("b", domain.LocationZlin, daysAgo(20)),
		rec("c", domain.LocationPrague, daysAgo(30)),
	}
	assert.Len(t, SelectTrending(recs, domain.EmptyEngagement(), testNow, 2), 2)
	assert.Len(t, SelectTrending(recs, domain.EmptyEngagement(), testNow, 10), 3)
}

func TestSelectHot_AllZeroLikesReturnsOldest(t *testing.T) {
	var recs []domain.Recording
	for i := 0; i < 9; i++ {
		loc := domain.LocationPrague
		if i%2 == 1 {
			loc = domain.LocationZlin
		}
		recs = append(recs, rec(string(rune('a'+i)), loc, daysAgo(10+i*30)))
	}
	catalog.SortByDateDesc(recs)

	got := SelectHot(recs, domain.EmptyEngagement(), testNow, 6)
	require.Len(t, got, 6)
	for _, h := range got {
		assert.Equal(t, 0, h.LikeCount)
		assert.Equal(t, 0, h.HotScore)
	}
	assert.Equal(t, []string{"i", "h", "g", "f", "e", "d"}, hotIDs(got))
}

func TestSelectHot_LocationCapAndBackfill(t *testing.T) {
	recs := []domain.Recording{
		rec("p1", domain.LocationPrague, daysAgo(400)),
		rec("p2", domain.LocationPrague, daysAgo(410)),
		rec("p3", domain.LocationPrague, daysAgo(420)),
		rec("p4", domain.LocationPrague, daysAgo(430)),
		rec("z1", domain.LocationZlin, daysAgo(440)),
		rec("u-new", domain.LocationZlin, daysAgo(20)),
		rec("u-old", domain.LocationPrague, daysAgo(900)),
	}
	c := counts(map[string]int{"p1": 5, "p2": 4, "p3": 3, "p4": 2, "z1": 1}, nil)

	t.Run("cap admits lower-scored location first", func(t *testing.T) {
		got := SelectHot(recs, c, testNow, 4)
		assert.Equal(t, []string{"p1", "p2", "p3", "z1"}, hotIDs(got))
	})

	t.Run("liked backfill before classics", func(t *testing.T) {
		onlyPrague := counts(map[string]int{"p1": 5, "p2": 4, "p3": 3, "p4": 2}, nil)
		got := SelectHot(recs, onlyPrague, testNow, 4)
		assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, hotIDs(got))
		for _, h := range got {
			assert.Positive(t, h.LikeCount)
		}
	})

	t.Run("classics fill the rest oldest first", func(t *testing.T) {
		got := SelectHot(recs, c, testNow, 7)
		assert.Equal(t, []string{"p1", "p2", "p3", "p4", "z1", "u-old", "u-new"}, hotIDs(got))
		assert.Equal(t, 0, got[5].LikeCount)
		assert.Equal(t, 0, got[5].HotScore)
	})
}

func TestHotScore(t *testing.T) {
	assert.Equal(t, 23, HotScore(rec("a", domain.LocationPrague, daysAgo(90)), 2, testNow))
	assert.Equal(t, 22, HotScore(rec("b", domain.LocationPrague, daysAgo(150)), 2, testNow))
	assert.Equal(t, 21, HotScore(rec("c", domain.LocationPrague, daysAgo(365)), 2, testNow))
	assert.Equal(t, 20, HotScore(rec("d", domain.LocationPrague, daysAgo(366)), 2, testNow))
	assert.Equal(t, 23, HotScore(rec("e", domain.LocationPrague, midnight(daysAgo(90))), 2, testNow))
}

func TestSelectMemberPicks(t *testing.T) {
	recs := []domain.Recording{
		rec("n-newest", domain.LocationPrague, daysAgo(10)),
		featured(rec("f-new", domain.LocationZlin, daysAgo(40))),
		rec("x", domain.LocationPrague, daysAgo(60)),
		rec("y", domain.LocationZlin, daysAgo(90)),
		featured(rec("f-old", domain.LocationPrague, daysAgo(500))),
		rec("n-old", domain.LocationZlin, daysAgo(700)),
	}
	boosted := []domain.VideoCount{
		{VideoID: "x", Count: 5},
		{VideoID: "ghost", Count: 4},
		{VideoID: "y", Count: 7},
	}

	got := SelectMemberPicks(recs, boosted, 4)
	assert.Equal(t, []string{"y", "x", "f-new", "f-old"}, memberIDs(got))
	assert.Equal(t, 7, got[0].BoostCount)
	assert.Equal(t, 0, got[2].BoostCount)

	got = SelectMemberPicks(recs, boosted, 6)
	assert.Equal(t, []string{"y", "x", "f-new", "f-old", "n-newest", "n-old"}, memberIDs(got))

	got = SelectMemberPicks(recs, boosted, 1)
	assert.Equal(t, []string{"y"}, memberIDs(got))
}

func TestSelectMemberPicks_NoBoostsIsPureBackfill(t *testing.T) {
	recs := []domain.Recording{
		rec("a", domain.LocationPrague, daysAgo(10)),
		featured(rec("b", domain.LocationZlin, daysAgo(20))),
		rec("c", domain.LocationPrague, daysAgo(30)),
	}
	got := SelectMemberPicks(recs, nil, 3)
	assert.Equal(t, []string{"b", "a", "c"}, memberIDs(got))
}

func TestSelectHiddenGems(t *testing.T) {
	recs := []domain.Recording{
		rec("recent", domain.LocationPrague, daysAgo(100)),
		rec("a-plain", domain.LocationPrague, daysAgo(200)),
		rec("Zlin-old", domain.LocationZlin, daysAgo(300)),
		featured(rec("9-featured", domain.LocationPrague, daysAgo(400))),
		rec("žluť", domain.LocationZlin, daysAgo(500)),
		rec("liked", domain.LocationPrague, daysAgo(600)),
		rec("boosted", domain.LocationZlin, daysAgo(700)),
	}
	c := counts(
		map[string]int{"a-plain": 2, "liked": 3},
		map[string]int{"boosted": 1},
	)

	// seed 20260630: ž(382)->12, 9(57)->687, Z(90)->720, a(97)->727
	got := SelectHiddenGems(recs, c, testNow, 10)
	assert.Equal(t, []string{"žluť", "9-featured", "Zlin-old", "a-plain"}, gemIDs(got))
	assert.Equal(t, 2, got[3].LikeCount)

	again := SelectHiddenGems(recs, c, testNow, 10)
	assert.Equal(t, gemIDs(got), gemIDs(again))

	// seed 20260930: Z->20, a->27, ž->312, 9->987
	later := time.Date(2026, 9, 30, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"Zlin-old", "a-plain", "žluť", "9-featured"}, gemIDs(SelectHiddenGems(recs, c, later, 10)))

	assert.Len(t, SelectHiddenGems(recs, c, testNow, 2), 2)
}

func TestSelectHiddenGems_FeaturedFirstWithinEqualKeys(t *testing.T) {
	recs := []domain.Recording{
		rec("aa", domain.LocationPrague, daysAgo(200)),
		featured(rec("ab", domain.LocationPrague, daysAgo(400))),
		rec("ac", domain.LocationPrague, daysAgo(300)),
	}
	got := SelectHiddenGems(recs, domain.EmptyEngagement(), testNow, 3)
	assert.Equal(t, []string{"ab", "aa", "ac"}, gemIDs(got))
}

func TestSelectHiddenGems_NoneQualify(t *testing.T) {
	recs := []domain.Recording{rec("new", domain.LocationPrague, daysAgo(5))}
	got := SelectHiddenGems(recs, domain.EmptyEngagement(), testNow, 5)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestShuffleKey(t *testing.T) {
	assert.Equal(t, 727, shuffleKey("abc", 20260630))
	assert.Equal(t, 630, shuffleKey("", 20260630))
}

func TestEngine_HiddenGemsCachedUntilInvalidated(t *testing.T) {
	clk := clock.NewFixed(testNow)
	store := catalog.NewStoreFromRecordings([]domain.Recording{
		rec("a", domain.LocationPrague, daysAgo(300)),
		rec("b", domain.LocationZlin, daysAgo(400)),
	})
	eng := &fakeEngagement{counts: domain.EmptyEngagement()}
	engine := NewEngine(store, eng, WithCache(cache.NewMemoryCache(clk)), WithClock(clk))
	ctx := context.Background()

	first, err := engine.HiddenGems(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, gemIDs(first))

	eng.mu.Lock()
	eng.counts = counts(map[string]int{"a": 10}, nil)
	eng.mu.Unlock()

	cached, err := engine.HiddenGems(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, gemIDs(cached))

	require.NoError(t, engine.InvalidateHiddenGems(ctx))

	fresh, err := engine.HiddenGems(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, gemIDs(fresh))
}

func TestEngine_CachesPerLimit(t *testing.T) {
	clk := clock.NewFixed(testNow)
	store := catalog.NewStoreFromRecordings([]domain.Recording{
		rec("a", domain.LocationPrague, daysAgo(30)),
		rec("b", domain.LocationZlin, daysAgo(60)),
	})
	eng := &fakeEngagement{counts: counts(map[string]int{"b": 1}, nil)}
	engine := NewEngine(store, eng, WithCache(cache.NewMemoryCache(clk)), WithClock(clk))
	ctx := context.Background()

	_, err := engine.Trending(ctx, 2)
	require.NoError(t, err)
	_, err = engine.Trending(ctx, 2)
	require.NoError(t, err)
	_, err = engine.Trending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, eng.fetches)

	clk.Advance(TrendingTTL)
	_, err = engine.Trending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, eng.fetches)
}

func TestEngine_MemberPicksFetchesTwiceTheLimit(t *testing.T) {
	store := catalog.NewStoreFromRecordings([]domain.Recording{
		rec("a", domain.LocationPrague, daysAgo(30)),
		rec("b", domain.LocationZlin, daysAgo(60)),
	})
	eng := &fakeEngagement{boosted: []domain.VideoCount{{VideoID: "b", Count: 3}}}
	engine := NewEngine(store, eng)

	got, err := engine.MemberPicks(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, memberIDs(got))
	assert.Equal(t, []int{4}, eng.boostLim)
}

func TestEngine_WithoutEngagement(t *testing.T) {
	store := catalog.NewStoreFromRecordings([]domain.Recording{
		rec("a", domain.LocationPrague, daysAgo(30)),
		rec("b", domain.LocationZlin, daysAgo(60)),
	})
	engine := NewEngine(store, nil, WithClock(clock.NewFixed(testNow)))

	hot, err := engine.Hot(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, hotIDs(hot))

	picks, err := engine.MemberPicks(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, memberIDs(picks))
}

func TestEngine_RecordingErrorPropagates(t *testing.T) {
	engine := NewEngine(failingRecordings{}, &fakeEngagement{counts: domain.EmptyEngagement()})
	_, err := engine.Trending(context.Background(), 3)
	assert.ErrorContains(t, err, "load recordings")
}

func TestEngine_NonPositiveLimit(t *testing.T) {
	engine := NewEngine(failingRecordings{}, nil)
	got, err := engine.Trending(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func trendingIDs(items []domain.TrendingRecording) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ShortID)
	}
	return out
}

func hotIDs(items []domain.HotRecording) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ShortID)
	}
	return out
}

func memberIDs(items []domain.MemberPick) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ShortID)
	}
	return out
}

func gemIDs(items []domain.HiddenGem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ShortID)
	}
	return out
}

func TestSelectHiddenGems_AgeCountsCalendarDays(t *testing.T) {
	recs := []domain.Recording{
		rec("at180", domain.LocationPrague, midnight(daysAgo(180))),
		rec("at181", domain.LocationPrague, midnight(daysAgo(181))),
	}
	got := SelectHiddenGems(recs, domain.EmptyEngagement(), testNow, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "at181", got[0].ShortID)
}
