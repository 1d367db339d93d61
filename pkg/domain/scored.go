package domain

// TrendingRecording is a recording annotated with the inputs and result of the trending score.
type TrendingRecording struct {
	Recording
	LikeCount     int `json:"likeCount"`
	BoostCount    int `json:"boostCount"`
	TrendingScore int `json:"trendingScore"`
}

// HotRecording is a recording annotated with its hot-picks score.
// Backfilled classics carry LikeCount and HotScore of zero.
type HotRecording struct {
	Recording
	LikeCount int `json:"likeCount"`
	HotScore  int `json:"hotScore"`
}

// MemberPick is a recording annotated with its member boost total.
type MemberPick struct {
	Recording
	BoostCount int `json:"boostCount"`
}

// HiddenGem is an under-engaged older recording.
type HiddenGem struct {
	Recording
	LikeCount  int `json:"likeCount"`
	BoostCount int `json:"boostCount"`
}
