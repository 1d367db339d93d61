package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"meetup-library/pkg/domain"
)

func TestIntegration_MongoCountByVideo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("MEETUP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MEETUP_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client := NewClient(MongoConfig{URI: uri, Database: "meetup_test"})
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(ctx)

	coll := client.database.Collection("video_boosts")
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	_, err := coll.InsertMany(ctx, []any{
		bson.M{"video_id": "b2"},
		bson.M{"video_id": "a1"},
		bson.M{"video_id": "b2"},
		bson.M{"video_id": ""},
	})
	require.NoError(t, err)

	got, err := client.CountByVideo(ctx, "video_boosts", 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.VideoCount{
		{VideoID: "b2", Count: 2},
		{VideoID: "a1", Count: 1},
	}, got)

	got, err = client.CountByVideo(ctx, "video_boosts", 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.VideoCount{{VideoID: "b2", Count: 2}}, got)
}

func TestIntegration_MongoCountByVideo_MalformedGroup(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("MEETUP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MEETUP_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client := NewClient(MongoConfig{URI: uri, Database: "meetup_test"})
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(ctx)

	coll := client.database.Collection("video_likes")
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	_, err := coll.InsertMany(ctx, []any{
		bson.M{"video_id": "a1"},
		bson.M{"video_id": 42},
	})
	require.NoError(t, err)

	_, err = client.CountByVideo(ctx, "video_likes", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode video_likes group")
}
