package sink

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stylehunt/catalogworker/internal/catalog"
	"stylehunt/catalogworker/logger"
	"stylehunt/catalogworker/pkg/errors"
)

// MongoSink persists canonical products in a MongoDB collection with a
// unique index on the canonical key. Concurrent idempotent writes are
// last-write-wins at the storage layer, so callers need no global lock
// before flushing.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoSink connects to MongoDB and ensures the canonical-key index.
func NewMongoSink(ctx context.Context, uri, database, collectionName string) (*MongoSink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.NewSink("", "failed to connect to mongodb", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, errors.NewSink("", "failed to ping mongodb", err)
	}

	collection := client.Database(database).Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.M{"canonical_key": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(connectCtx, indexModel); err != nil {
		logger.ForSink().Warn().Err(err).Msg("Could not create canonical_key index")
	}

	return &MongoSink{client: client, collection: collection}, nil
}

// Upsert replaces the document for the product's canonical key, or
// inserts it when absent.
func (s *MongoSink) Upsert(ctx context.Context, product catalog.Product) (Result, error) {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"canonical_key": product.CanonicalKey}
	opts := options.Replace().SetUpsert(true)

	result, err := s.collection.ReplaceOne(opCtx, filter, product, opts)
	if err != nil {
		return "", errors.NewSink(product.Store, "upsert "+product.CanonicalKey, err)
	}

	switch {
	case result.UpsertedCount > 0:
		return ResultInserted, nil
	case result.ModifiedCount > 0:
		return ResultUpdated, nil
	default:
		return ResultUnchanged, nil
	}
}

// Close disconnects the MongoDB client.
func (s *MongoSink) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(closeCtx)
}
