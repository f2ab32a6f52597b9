package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the production Records implementation over a MongoDB collection.
type Mongo[T any, R RecordPtr[T]] struct {
	coll *mongo.Collection
}

// NewMongo wraps a collection and ensures the unique (owner_id, created_at)
// index that makes Put append-only.
func NewMongo[T any, R RecordPtr[T]](ctx context.Context, coll *mongo.Collection) (*Mongo[T, R], error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create version index on %s: %w", coll.Name(), err)
	}
	return &Mongo[T, R]{coll: coll}, nil
}

func (s *Mongo[T, R]) Put(ctx context.Context, rec R) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, rec.RecordOwner(), rec.RecordKey())
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (s *Mongo[T, R]) QueryActive(ctx context.Context, ownerID string) ([]R, error) {
	filter := bson.M{"owner_id": ownerID, "deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query active records: %w", err)
	}
	defer cursor.Close(ctx)

	var values []T
	if err := cursor.All(ctx, &values); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	recs := make([]R, 0, len(values))
	for i := range values {
		recs = append(recs, R(&values[i]))
	}
	return recs, nil
}

func (s *Mongo[T, R]) GetExact(ctx context.Context, ownerID, versionKey string) (R, error) {
	var value T
	err := s.coll.FindOne(ctx, bson.M{"owner_id": ownerID, "created_at": versionKey}).Decode(&value)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}
	return R(&value), nil
}

func (s *Mongo[T, R]) Latest(ctx context.Context, ownerID string) (R, error) {
	filter := bson.M{"owner_id": ownerID, "deleted": false}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var value T
	err := s.coll.FindOne(ctx, filter, opts).Decode(&value)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest record: %w", err)
	}
	return R(&value), nil
}

func (s *Mongo[T, R]) MarkDeleted(ctx context.Context, ownerID, versionKey string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"owner_id": ownerID, "created_at": versionKey},
		bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return fmt.Errorf("failed to mark record deleted: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo[T, R]) Update(ctx context.Context, rec R) error {
	res, err := s.coll.ReplaceOne(ctx,
		bson.M{"owner_id": rec.RecordOwner(), "created_at": rec.RecordKey()}, rec)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
