// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleTrainee = "trainee"
	RoleAgent   = "agent"
	RoleAdmin   = "admin"
)

// MaxTraineesPerAgent caps an agent's trainees_assigned list.
const MaxTraineesPerAgent = 5

// User represents trainees, agents, and admins.
//
// NOTE:
//   - Email is stored folded (trimmed, lowercased) and carries a unique index,
//     so uniqueness is case-insensitive.
//   - Role is set at creation and never updated.
//   - A trainee's agent link (AgentID/AgentName/AgentEmail) and the agent's
//     TraineesAssigned entry are written together by the assignments store.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // trainee | agent | admin

	// Trainee side of an assignment.
	AgentID    *primitive.ObjectID `bson:"agent_id,omitempty" json:"agent_id,omitempty"`
	AgentName  string              `bson:"agent_name,omitempty" json:"agent_name,omitempty"`
	AgentEmail string              `bson:"agent_email,omitempty" json:"agent_email,omitempty"`

	// Agent side of an assignment.
	TraineesAssigned []TraineeSummary `bson:"trainees_assigned,omitempty" json:"trainees_assigned,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TraineeSummary is the denormalized trainee entry kept on an agent.
type TraineeSummary struct {
	TraineeID primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
}

// IsValidRole reports whether role is one of the three known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleTrainee, RoleAgent, RoleAdmin:
		return true
	}
	return false
}
