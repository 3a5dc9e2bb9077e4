package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens the database and verifies the connection.
func Connect(uri, name string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(name), nil
}

// EnsureIndexes creates the indexes the query layer depends on: unique
// identity fields, 2dsphere indexes for the nearby scans, and the
// follow/notification access paths.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "currentCity.coordinates", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "locationSettings.searchLocation.coordinates", Value: "2dsphere"}}},
	}
	if _, err := database.Collection("users").Indexes().CreateMany(ctx, users); err != nil {
		return err
	}

	events := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location.coordinates", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isPrivate", Value: 1}}},
	}
	if _, err := database.Collection("events").Indexes().CreateMany(ctx, events); err != nil {
		return err
	}

	posts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location.coordinates", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := database.Collection("posts").Indexes().CreateMany(ctx, posts); err != nil {
		return err
	}

	follows := mongo.IndexModel{
		Keys:    bson.D{{Key: "follower", Value: 1}, {Key: "following", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := database.Collection("follows").Indexes().CreateOne(ctx, follows); err != nil {
		return err
	}

	notifications := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}}},
	}
	_, err := database.Collection("notifications").Indexes().CreateMany(ctx, notifications)
	return err
}

// Page clamps 1-based page/limit values and returns the skip/limit pair
// for a find or aggregation.
func Page(page, limit, defaultLimit int64) (skip, lim int64) {
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}
