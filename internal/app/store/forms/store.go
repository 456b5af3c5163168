// internal/app/store/forms/store.go
package formstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when a form with the same email already exists.
	ErrDuplicateEmail = errors.New("an application with this email already exists")
	// ErrNotFound is returned when no form matches.
	ErrNotFound = errors.New("application form not found")
	errBadRole  = errors.New(`form role must be "trainee"|"agent"`)
)

// Store manages application_forms.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("application_forms")}
}

// Create inserts a submitted form. The email is folded before storage so
// that the unique index compares case-insensitively.
func (s *Store) Create(ctx context.Context, f models.ApplicationForm) (models.ApplicationForm, error) {
	f.ID = primitive.NewObjectID()
	f.Email = normalize.Email(f.Email)
	f.Role = normalize.Role(f.Role)
	if f.Role != models.RoleTrainee && f.Role != models.RoleAgent {
		return models.ApplicationForm{}, errBadRole
	}
	f.InvitedAt = nil
	f.CreatedAt = time.Now().UTC()
	if f.Documents == nil {
		f.Documents = map[string]string{}
	}
	if f.DocumentKeys == nil {
		f.DocumentKeys = map[string]string{}
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ApplicationForm{}, ErrDuplicateEmail
		}
		return models.ApplicationForm{}, fmt.Errorf("insert form: %w", err)
	}
	return f, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.ApplicationForm, error) {
	var f models.ApplicationForm
	if err := s.c.FindOne(ctx, filter).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetByID loads a form by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ApplicationForm, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail loads a form by (folded) email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.ApplicationForm, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// EmailExists reports whether a form uses this email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": normalize.Email(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns forms newest first, optionally filtered by role.
func (s *Store) List(ctx context.Context, role string) ([]models.ApplicationForm, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = normalize.Role(role)
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ApplicationForm{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkInvited records when the latest invitation for the form was issued.
func (s *Store) MarkInvited(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"invited_at": at.UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a form and returns the deleted count (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
