package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/pkg/mongodb"
)

// MongoCollection holds one document per leaderboard kind
const MongoCollection = "leaderboards"

// MongoBackend replaces the whole kind document on every save
type MongoBackend struct {
	coll *mongo.Collection
}

// NewMongoBackend creates a MongoDB-backed leaderboard backend
func NewMongoBackend(client *mongodb.Client) *MongoBackend {
	return &MongoBackend{coll: client.Collection(MongoCollection)}
}

func (b *MongoBackend) Name() string { return "mongo" }

func (b *MongoBackend) Get(ctx context.Context, kind contracts.Kind) (*leaderboard.Record, error) {
	var doc document
	err := b.coll.FindOne(ctx, bson.M{"_id": string(kind)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return fromDocument(doc)
}

func (b *MongoBackend) Put(ctx context.Context, rec *leaderboard.Record) error {
	doc := toDocument(rec)
	opts := options.Replace().SetUpsert(true)
	if _, err := b.coll.ReplaceOne(ctx, bson.M{"_id": doc.Kind}, doc, opts); err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

func (b *MongoBackend) Delete(ctx context.Context, kind contracts.Kind) error {
	if _, err := b.coll.DeleteOne(ctx, bson.M{"_id": string(kind)}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}
