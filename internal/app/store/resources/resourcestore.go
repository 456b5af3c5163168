// internal/app/store/resources/resourcestore.go
package resourcestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("resource not found")
	errTitleMissing = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("resources")}
}

// Create inserts a resource owned by r.AgentID.
func (s *Store) Create(ctx context.Context, r models.Resource) (models.Resource, error) {
	r.ID = primitive.NewObjectID()
	r.Title = htmlsanitize.Plain(r.Title)
	r.Description = htmlsanitize.Sanitize(r.Description)
	r.CreatedAt = time.Now().UTC()

	if strings.TrimSpace(r.Title) == "" {
		return models.Resource{}, errTitleMissing
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Resource{}, err
	}
	return r, nil
}

// GetByID loads a resource by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error) {
	var r models.Resource
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListByAgent returns the agent's resources, newest first.
func (s *Store) ListByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Resource, error) {
	cur, err := s.c.Find(ctx, bson.M{"agent_id": agentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Resource{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByAgent removes every resource owned by agentID and returns the
// storage keys of their files so the caller can delete them.
func (s *Store) DeleteByAgent(ctx context.Context, agentID primitive.ObjectID) ([]string, error) {
	list, err := s.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"agent_id": agentID}); err != nil {
		return nil, err
	}
	var keys []string
	for _, r := range list {
		if r.FileKey != "" {
			keys = append(keys, r.FileKey)
		}
	}
	return keys, nil
}
