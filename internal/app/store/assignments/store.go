// Package assignments links trainees to agents. Both sides of the link live
// on user documents: the trainee carries agent_id/agent_name/agent_email and
// the agent carries a trainees_assigned summary list capped at
// models.MaxTraineesPerAgent.
package assignments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/txn"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrAgentNotFound is returned when the agent id does not name an agent.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrTraineeNotFound is returned when the trainee id does not name a trainee.
	ErrTraineeNotFound = errors.New("trainee not found")
	// ErrTraineeAlreadyAssigned is returned when the trainee already has an agent.
	ErrTraineeAlreadyAssigned = errors.New("trainee is already assigned to an agent")
	// ErrAgentAtCapacity is returned when the agent already has the maximum number of trainees.
	ErrAgentAtCapacity = errors.New("agent already has the maximum number of trainees")
	// ErrNotAssigned is returned by Unassign when the trainee is not linked to the agent.
	ErrNotAssigned = errors.New("trainee is not assigned to this agent")
)

type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection("users"), log: logger}
}

// capacityField is the array position that exists only when the agent is full.
var capacityField = "trainees_assigned." + strconv.Itoa(models.MaxTraineesPerAgent-1)

func (s *Store) loadRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id, "role": role}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Assign links trainee to agent. Checks run in order: agent exists, trainee
// exists, trainee unassigned, agent below capacity. Both writes are
// conditional so concurrent calls cannot exceed the cap or double-assign a
// trainee, and they run inside a transaction when the server supports one.
func (s *Store) Assign(ctx context.Context, agentID, traineeID primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		agent, err := s.loadRole(ctx, agentID, models.RoleAgent)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAgentNotFound
		}
		if err != nil {
			return fmt.Errorf("load agent: %w", err)
		}
		trainee, err := s.loadRole(ctx, traineeID, models.RoleTrainee)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTraineeNotFound
		}
		if err != nil {
			return fmt.Errorf("load trainee: %w", err)
		}

		if trainee.AgentID != nil {
			return ErrTraineeAlreadyAssigned
		}
		if len(agent.TraineesAssigned) >= models.MaxTraineesPerAgent {
			return ErrAgentAtCapacity
		}

		now := time.Now().UTC()

		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": traineeID, "role": models.RoleTrainee, "agent_id": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{
				"agent_id":    agentID,
				"agent_name":  agent.Username,
				"agent_email": agent.Email,
				"updated_at":  now,
			}},
		)
		if err != nil {
			return fmt.Errorf("link trainee: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrTraineeAlreadyAssigned
		}

		res, err = s.c.UpdateOne(ctx,
			bson.M{
				"_id":                          agentID,
				"role":                         models.RoleAgent,
				capacityField:                  bson.M{"$exists": false},
				"trainees_assigned.trainee_id": bson.M{"$ne": traineeID},
			},
			bson.M{
				"$push": bson.M{"trainees_assigned": models.TraineeSummary{
					TraineeID: traineeID,
					Username:  trainee.Username,
					Email:     trainee.Email,
				}},
				"$set": bson.M{"updated_at": now},
			},
		)
		if err == nil && res.MatchedCount == 1 {
			return nil
		}

		// Undo the trainee link so a lost race leaves no half-written state.
		if _, uerr := s.c.UpdateOne(ctx,
			bson.M{"_id": traineeID, "agent_id": agentID},
			bson.M{"$unset": bson.M{"agent_id": "", "agent_name": "", "agent_email": ""}},
		); uerr != nil && s.log != nil {
			s.log.Error("failed to undo trainee link",
				zap.String("trainee_id", traineeID.Hex()),
				zap.String("agent_id", agentID.Hex()),
				zap.Error(uerr))
		}
		if err != nil {
			return fmt.Errorf("link agent: %w", err)
		}
		return ErrAgentAtCapacity
	})
}

// Unassign removes the link between agent and trainee.
func (s *Store) Unassign(ctx context.Context, agentID, traineeID primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		now := time.Now().UTC()
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": traineeID, "role": models.RoleTrainee, "agent_id": agentID},
			bson.M{
				"$unset": bson.M{"agent_id": "", "agent_name": "", "agent_email": ""},
				"$set":   bson.M{"updated_at": now},
			},
		)
		if err != nil {
			return fmt.Errorf("unlink trainee: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotAssigned
		}
		if _, err := s.c.UpdateOne(ctx,
			bson.M{"_id": agentID},
			bson.M{
				"$pull": bson.M{"trainees_assigned": bson.M{"trainee_id": traineeID}},
				"$set":  bson.M{"updated_at": now},
			},
		); err != nil {
			return fmt.Errorf("unlink agent: %w", err)
		}
		return nil
	})
}

// DetachUser clears every assignment link that points at u. Call it when u
// is deleted: an agent's trainees become unassigned, and a trainee is
// removed from its agent's list.
func (s *Store) DetachUser(ctx context.Context, u models.User) error {
	switch u.Role {
	case models.RoleAgent:
		_, err := s.c.UpdateMany(ctx,
			bson.M{"role": models.RoleTrainee, "agent_id": u.ID},
			bson.M{
				"$unset": bson.M{"agent_id": "", "agent_name": "", "agent_email": ""},
				"$set":   bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return fmt.Errorf("detach agent %s: %w", u.ID.Hex(), err)
		}
	case models.RoleTrainee:
		_, err := s.c.UpdateMany(ctx,
			bson.M{"role": models.RoleAgent, "trainees_assigned.trainee_id": u.ID},
			bson.M{
				"$pull": bson.M{"trainees_assigned": bson.M{"trainee_id": u.ID}},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return fmt.Errorf("detach trainee %s: %w", u.ID.Hex(), err)
		}
	}
	return nil
}
