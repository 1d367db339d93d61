package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"meetup-library/pkg/domain"
)

// MongoConfig holds the document store holding one document per like or boost event.
type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

// Client wraps the MongoDB client and database connection.
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
}

// NewClient creates a new database client. Connection errors surface from Connect.
func NewClient(cfg MongoConfig) *Client {
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return &Client{}
	}

	return &Client{
		mongoClient: mongoClient,
		database:    mongoClient.Database(cfg.Database),
	}
}

// Connect verifies the connection to MongoDB.
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// CountByVideo groups the events in collection by video_id and returns the counts,
// highest first. limit <= 0 returns every group.
func (c *Client) CountByVideo(ctx context.Context, collection string, limit int) ([]domain.VideoCount, error) {
	if c.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$video_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := c.database.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var out []domain.VideoCount
	for cursor.Next(ctx) {
		var row domain.VideoCount
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode %s group: %w", collection, err)
		}
		if row.VideoID != "" {
			out = append(out, row)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}
