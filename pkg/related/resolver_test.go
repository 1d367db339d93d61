package related

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetup-library/pkg/clock"
	"meetup-library/pkg/domain"
)

var now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

type recOpt func(*domain.Recording)

func tags(t ...string) recOpt     { return func(r *domain.Recording) { r.Tags = t } }
func speakers(s ...string) recOpt { return func(r *domain.Recording) { r.Speakers = s } }
func episode(id string) recOpt    { return func(r *domain.Recording) { r.EpisodeID = id } }
func zlin() recOpt                { return func(r *domain.Recording) { r.Location = domain.LocationZlin } }

func rec(id string, date time.Time, opts ...recOpt) domain.Recording {
	r := domain.Recording{
		ID:       "yt-" + id,
		ShortID:  id,
		Title:    "Talk " + id,
		Date:     date,
		Location: domain.LocationPrague,
		Tags:     []string{},
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func shortIDs(recs []domain.Recording) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ShortID)
	}
	return out
}

func newResolver() *Resolver {
	return NewResolver(clock.NewFixed(now))
}

func TestRelated_CascadesThroughPools(t *testing.T) {
	d := daysAgo(1)
	a := rec("A", d, tags("go", "rust"), speakers("X"), episode("E1"))
	b := rec("B", d.AddDate(0, 0, -10), tags("go"))
	c := rec("C", d.AddDate(0, 0, -5), speakers("X"))
	d2 := rec("D2", d.AddDate(0, 0, -200), episode("E1"))
	all := []domain.Recording{a, c, b, d2}

	assert.Equal(t, []string{"B", "C"}, shortIDs(newResolver().Related(a, all, 2)))
	assert.Equal(t, []string{"B", "C", "D2"}, shortIDs(newResolver().Related(a, all, 3)))
}

func TestRelated_ExcludesSourceAndRespectsLimit(t *testing.T) {
	src := rec("S", daysAgo(10), tags("go"))
	all := []domain.Recording{src, src}
	for i := 0; i < 8; i++ {
		all = append(all, rec(string(rune('a'+i)), daysAgo(20+i), tags("go")))
	}

	got := newResolver().Related(src, all, 5)
	require.Len(t, got, 5)
	for _, r := range got {
		assert.NotEqual(t, src.ID, r.ID)
	}

	assert.Len(t, newResolver().Related(src, all, 0), DefaultLimit)
}

func TestRelated_SkipsDuplicateCandidates(t *testing.T) {
	src := rec("S", daysAgo(10), tags("go"))
	dup := rec("dup", daysAgo(20), tags("go"))
	got := newResolver().Related(src, []domain.Recording{dup, dup, src}, 4)
	assert.Equal(t, []string{"dup"}, shortIDs(got))
}

func TestRelated_EpisodeReuseOnlyInFinalPass(t *testing.T) {
	src := rec("S", daysAgo(300), tags("go"), episode("E0"))
	e1a := rec("E1a", daysAgo(400), tags("go"), episode("E1"))
	e1b := rec("E1b", daysAgo(410), tags("go"), episode("E1"))
	x := rec("X", daysAgo(500), tags("go"))

	got := newResolver().Related(src, []domain.Recording{e1a, e1b, x}, 3)
	assert.Equal(t, []string{"E1a", "X", "E1b"}, shortIDs(got))

	got = newResolver().Related(src, []domain.Recording{e1a, e1b, x}, 2)
	assert.Equal(t, []string{"E1a", "X"}, shortIDs(got))
}

func TestRelated_PenalizesOverlapWithPicked(t *testing.T) {
	src := rec("S", daysAgo(300), tags("go", "k8s", "db"))
	p := rec("P", daysAgo(400), tags("go", "k8s"))
	q := rec("Q", daysAgo(410), tags("go", "k8s"))
	r := rec("R", daysAgo(420), tags("db"))

	got := newResolver().Related(src, []domain.Recording{p, q, r}, 2)
	assert.Equal(t, []string{"P", "R"}, shortIDs(got))
}

func TestRelated_NextUpPrefersSharedTagsOverScore(t *testing.T) {
	src := rec("S", daysAgo(30), tags("a", "b", "c"), episode("E1"))
	c1 := rec("C1", daysAgo(900), tags("a", "b"), zlin())
	c2 := rec("C2", daysAgo(5), tags("a"), episode("E1"))

	got := newResolver().Related(src, []domain.Recording{c2, c1}, 1)
	assert.Equal(t, []string{"C1"}, shortIDs(got))
}

func TestRelated_SpeakerPoolMatchesCaseInsensitively(t *testing.T) {
	src := rec("S", daysAgo(30), speakers("Bob Smith"))
	w := rec("W", daysAgo(400), speakers("bob smith "))
	y := rec("Y", daysAgo(10))

	got := newResolver().Related(src, []domain.Recording{y, w}, 2)
	assert.Equal(t, []string{"W", "Y"}, shortIDs(got))
}

func TestRelated_FallsBackToAllCandidates(t *testing.T) {
	src := rec("S", daysAgo(30))
	far := rec("far", daysAgo(40), zlin())
	older := rec("older", daysAgo(400), zlin())

	got := newResolver().Related(src, []domain.Recording{older, far}, 4)
	assert.Equal(t, []string{"far", "older"}, shortIDs(got))
}

func TestRelated_NoCandidates(t *testing.T) {
	src := rec("S", daysAgo(30))

	got := newResolver().Related(src, []domain.Recording{src}, 4)
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, newResolver().Related(src, nil, 4))
}

func TestBaseScore(t *testing.T) {
	c := &candidate{
		rec:            rec("c", daysAgo(60)),
		sharedTags:     5,
		sharedSpeakers: 3,
		sameEpisode:    true,
		sameLocation:   true,
	}
	assert.Equal(t, 6+2+9+8+2, baseScore(c, now))

	c.rec.Date = daysAgo(150)
	assert.Equal(t, 6+2+9+8+1, baseScore(c, now))

	c.rec.Date = daysAgo(200)
	c.sameEpisode = false
	assert.Equal(t, 2+9+8, baseScore(c, now))
}
