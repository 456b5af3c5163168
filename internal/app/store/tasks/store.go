// internal/app/store/tasks/store.go
package taskstore

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
	// ErrNotFound is returned when no task matches the id and owner.
	ErrNotFound     = errors.New("task not found")
	errBadType      = errors.New(`task_type must be "quiz"|"resource"`)
	errTitleMissing = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts an assigned task. Ownership of the trainee is checked by the caller.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.Title = htmlsanitize.Plain(t.Title)
	t.TaskType = strings.ToLower(strings.TrimSpace(t.TaskType))
	t.Status = models.TaskStatusAssigned
	t.CompletedAt = nil
	t.CreatedAt = time.Now().UTC()

	if t.TaskType != models.TaskTypeQuiz && t.TaskType != models.TaskTypeResource {
		return models.Task{}, errBadType
	}
	if t.Title == "" {
		return models.Task{}, errTitleMissing
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByAgent returns tasks the agent assigned.
func (s *Store) ListByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Task, error) {
	return s.list(ctx, bson.M{"agent_id": agentID})
}

// ListByTrainee returns tasks assigned to the trainee.
func (s *Store) ListByTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]models.Task, error) {
	return s.list(ctx, bson.M{"trainee_id": traineeID})
}

// DeleteOwned removes a task only if agentID created it.
func (s *Store) DeleteOwned(ctx context.Context, id, agentID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "agent_id": agentID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete marks the trainee's own task completed. Completing an already
// completed task succeeds and keeps the original completion time.
func (s *Store) Complete(ctx context.Context, id, traineeID primitive.ObjectID) (*models.Task, error) {
	now := time.Now().UTC()
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "trainee_id": traineeID, "status": models.TaskStatusAssigned},
		bson.M{"$set": bson.M{"status": models.TaskStatusCompleted, "completed_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	err = s.c.FindOne(ctx, bson.M{"_id": id, "trainee_id": traineeID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteByUser removes every task the user created or was assigned.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"agent_id": userID},
		bson.M{"trainee_id": userID},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
