// internal/domain/models/resource.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource is learning material published by an agent for their trainees.
type Resource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentID     primitive.ObjectID `bson:"agent_id" json:"agent_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	FileURL     string             `bson:"file_url,omitempty" json:"file_url,omitempty"`
	FileKey     string             `bson:"file_key,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Progress records that a trainee accessed a resource.
// (trainee_id, resource_id) is unique.
type Progress struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TraineeID  primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	ResourceID primitive.ObjectID `bson:"resource_id" json:"resource_id"`
	AccessedAt time.Time          `bson:"accessed_at" json:"accessed_at"`
}

// Transcript is a trainee's uploaded academic transcript. One per trainee.
type Transcript struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TraineeID  primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	URL        string             `bson:"url" json:"url"`
	Key        string             `bson:"key" json:"-"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}
