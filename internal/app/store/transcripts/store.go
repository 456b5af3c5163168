// internal/app/store/transcripts/store.go
package transcriptstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the trainee has not uploaded a transcript.
var ErrNotFound = errors.New("transcript not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("transcripts")}
}

// Upsert stores the trainee's transcript, replacing any earlier one. It
// returns the storage key of the replaced file ("" if there was none) so the
// caller can delete the old object.
func (s *Store) Upsert(ctx context.Context, traineeID primitive.ObjectID, url, key string) (models.Transcript, string, error) {
	now := time.Now().UTC()
	var old models.Transcript
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"trainee_id": traineeID},
		bson.M{"$set": bson.M{"url": url, "key": key, "uploaded_at": now}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&old)

	oldKey := ""
	switch {
	case err == nil:
		oldKey = old.Key
	case errors.Is(err, mongo.ErrNoDocuments):
		// inserted
	default:
		return models.Transcript{}, "", err
	}

	t, err := s.GetByTrainee(ctx, traineeID)
	if err != nil {
		return models.Transcript{}, "", err
	}
	if oldKey == key {
		oldKey = ""
	}
	return *t, oldKey, nil
}

// GetByTrainee returns the trainee's transcript.
func (s *Store) GetByTrainee(ctx context.Context, traineeID primitive.ObjectID) (*models.Transcript, error) {
	var t models.Transcript
	err := s.c.FindOne(ctx, bson.M{"trainee_id": traineeID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteByTrainee removes the transcript record and returns its storage key.
func (s *Store) DeleteByTrainee(ctx context.Context, traineeID primitive.ObjectID) (string, error) {
	var t models.Transcript
	err := s.c.FindOneAndDelete(ctx, bson.M{"trainee_id": traineeID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return t.Key, nil
}
