package taskstore_test

import (
	"errors"
	"testing"

	taskstore "github.com/dalemusser/coachhub/internal/app/store/tasks"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name    string
		task    models.Task
		wantErr bool
	}{
		{"quiz", models.Task{TaskType: "Quiz", Title: "Week 1 quiz"}, false},
		{"resource", models.Task{TaskType: models.TaskTypeResource, Title: "Read CV guide"}, false},
		{"bad type", models.Task{TaskType: "essay", Title: "x"}, true},
		{"blank title", models.Task{TaskType: models.TaskTypeQuiz, Title: " "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.task.AgentID = primitive.NewObjectID()
			tt.task.TraineeID = primitive.NewObjectID()
			tt.task.Status = models.TaskStatusCompleted

			got, err := store.Create(ctx, tt.task)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if got.Status != models.TaskStatusAssigned {
				t.Errorf("status: got %q, want %q", got.Status, models.TaskStatusAssigned)
			}
		})
	}
}

func TestStore_ListsAreScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agentA, agentB := primitive.NewObjectID(), primitive.NewObjectID()
	trainee1, trainee2 := primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.CreateTask(ctx, agentA, trainee1, "a1")
	fixtures.CreateTask(ctx, agentA, trainee2, "a2")
	fixtures.CreateTask(ctx, agentB, trainee2, "b1")

	byA, err := store.ListByAgent(ctx, agentA)
	if err != nil {
		t.Fatalf("ListByAgent failed: %v", err)
	}
	if len(byA) != 2 {
		t.Errorf("ListByAgent(A): got %d, want 2", len(byA))
	}
	for _, task := range byA {
		if task.AgentID != agentA {
			t.Errorf("task %q leaked from agent %v", task.Title, task.AgentID)
		}
	}

	for2, err := store.ListByTrainee(ctx, trainee2)
	if err != nil {
		t.Fatalf("ListByTrainee failed: %v", err)
	}
	if len(for2) != 2 {
		t.Errorf("ListByTrainee(2): got %d, want 2", len(for2))
	}
}

func TestStore_DeleteOwned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := primitive.NewObjectID()
	task := fixtures.CreateTask(ctx, agent, primitive.NewObjectID(), "t")

	if err := store.DeleteOwned(ctx, task.ID, primitive.NewObjectID()); !errors.Is(err, taskstore.ErrNotFound) {
		t.Errorf("DeleteOwned(other agent): got %v, want ErrNotFound", err)
	}
	if err := store.DeleteOwned(ctx, task.ID, agent); err != nil {
		t.Errorf("DeleteOwned: %v", err)
	}
	if err := store.DeleteOwned(ctx, task.ID, agent); !errors.Is(err, taskstore.ErrNotFound) {
		t.Errorf("second DeleteOwned: got %v, want ErrNotFound", err)
	}
}

func TestStore_Complete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	trainee := primitive.NewObjectID()
	task := fixtures.CreateTask(ctx, primitive.NewObjectID(), trainee, "t")

	if _, err := store.Complete(ctx, task.ID, primitive.NewObjectID()); !errors.Is(err, taskstore.ErrNotFound) {
		t.Errorf("Complete(other trainee): got %v, want ErrNotFound", err)
	}

	done, err := store.Complete(ctx, task.ID, trainee)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != models.TaskStatusCompleted || done.CompletedAt == nil {
		t.Errorf("Complete: got %+v", done)
	}

	again, err := store.Complete(ctx, task.ID, trainee)
	if err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	if !again.CompletedAt.Equal(*done.CompletedAt) {
		t.Errorf("completed_at changed: %v -> %v", done.CompletedAt, again.CompletedAt)
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	fixtures.CreateTask(ctx, user, primitive.NewObjectID(), "as agent")
	fixtures.CreateTask(ctx, primitive.NewObjectID(), user, "as trainee")
	fixtures.CreateTask(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "unrelated")

	n, err := store.DeleteByUser(ctx, user)
	if err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted: got %d, want 2", n)
	}
}
