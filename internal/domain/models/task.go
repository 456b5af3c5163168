// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TaskTypeQuiz     = "quiz"
	TaskTypeResource = "resource"

	TaskStatusAssigned  = "assigned"
	TaskStatusCompleted = "completed"
)

// Task is work an agent hands to one of their trainees.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AgentID     primitive.ObjectID  `bson:"agent_id" json:"agent_id"`
	TraineeID   primitive.ObjectID  `bson:"trainee_id" json:"trainee_id"`
	TaskType    string              `bson:"task_type" json:"task_type"`
	Title       string              `bson:"title" json:"title"`
	ResourceID  *primitive.ObjectID `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Status      string              `bson:"status" json:"status"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	CompletedAt *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
