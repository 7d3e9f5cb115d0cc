package store

import (
	"context"
	"errors"

	"github.com/example/sweetshop/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handle is the narrow contract the store needs from the orders collection:
// insert, find with sort/projection, single lookup, and an atomic
// find-and-update that returns the post-update document.
//
// Not-found is reported as a nil document with a nil error.
type Handle interface {
	Insert(ctx context.Context, doc bson.M) error
	Find(ctx context.Context, filter bson.M, sort bson.D, projection bson.D) ([]bson.M, error)
	FindOne(ctx context.Context, filter bson.M) (bson.M, error)
	FindOneAndUpdate(ctx context.Context, filter bson.M, set bson.M, projection bson.D) (bson.M, error)
}

// MongoHandle implements Handle over a single MongoDB collection.
type MongoHandle struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoHandle(ctx context.Context, cfg *config.MongoDBConfig) (*MongoHandle, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &MongoHandle{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (h *MongoHandle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, nil)
}

func (h *MongoHandle) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}

func (h *MongoHandle) Insert(ctx context.Context, doc bson.M) error {
	_, err := h.coll.InsertOne(ctx, doc)
	return err
}

func (h *MongoHandle) Find(ctx context.Context, filter bson.M, sort bson.D, projection bson.D) ([]bson.M, error) {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	cursor, err := h.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (h *MongoHandle) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := h.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (h *MongoHandle) FindOneAndUpdate(ctx context.Context, filter bson.M, set bson.M, projection bson.D) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	var doc bson.M
	err := h.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

var _ Handle = (*MongoHandle)(nil)
