// internal/app/store/progress/store.go
package progressstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the trainee has no progress for the resource.
var ErrNotFound = errors.New("progress not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("progress")}
}

// Mark records that the trainee accessed the resource. Repeated calls keep a
// single record and refresh accessed_at.
func (s *Store) Mark(ctx context.Context, traineeID, resourceID primitive.ObjectID) (*models.Progress, error) {
	now := time.Now().UTC()
	filter := bson.M{"trainee_id": traineeID, "resource_id": resourceID}
	update := bson.M{"$set": bson.M{"accessed_at": now}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p models.Progress
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil && wafflemongo.IsDup(err) {
		// Two concurrent upserts raced on the unique index; the loser retries as an update.
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns the trainee's progress for one resource.
func (s *Store) Get(ctx context.Context, traineeID, resourceID primitive.ObjectID) (*models.Progress, error) {
	var p models.Progress
	err := s.c.FindOne(ctx, bson.M{"trainee_id": traineeID, "resource_id": resourceID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByTrainee returns all progress records for a trainee, most recent access first.
func (s *Store) ListByTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]models.Progress, error) {
	cur, err := s.c.Find(ctx, bson.M{"trainee_id": traineeID},
		options.Find().SetSort(bson.D{{Key: "accessed_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Progress{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByTrainee removes all progress for a trainee.
func (s *Store) DeleteByTrainee(ctx context.Context, traineeID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"trainee_id": traineeID})
	return err
}
