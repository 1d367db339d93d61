package domain

// EngagementCounts holds per-recording like and boost totals keyed by short id.
// A missing entry means zero.
type EngagementCounts struct {
	Likes  map[string]int `json:"likes"`
	Boosts map[string]int `json:"boosts"`
}

// EmptyEngagement returns counts with both maps allocated and empty.
func EmptyEngagement() EngagementCounts {
	return EngagementCounts{
		Likes:  map[string]int{},
		Boosts: map[string]int{},
	}
}

// LikesFor returns the like count for shortID.
func (c EngagementCounts) LikesFor(shortID string) int {
	return c.Likes[shortID]
}

// BoostsFor returns the boost count for shortID.
func (c EngagementCounts) BoostsFor(shortID string) int {
	return c.Boosts[shortID]
}

// VideoCount is one row of a grouped count query: a video id and how often it occurs.
type VideoCount struct {
	VideoID string `json:"video_id" bson:"_id"`
	Count   int    `json:"count" bson:"count"`
}
