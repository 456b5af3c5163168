package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/indexes"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*mongo.Database, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db, userstore.New(db)
}

func newUser(t *testing.T, name, email, role string) models.User {
	t.Helper()
	hash, err := userstore.HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return models.User{Username: name, Email: email, Role: role, PasswordHash: hash}
}

func TestStore_Create_Trainee(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newUser(t, "  Ama   Mensah ", "  Ama@Example.COM ", "Trainee"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ama@example.com" {
		t.Errorf("email: got %q, want %q", created.Email, "ama@example.com")
	}
	if created.Username != "Ama Mensah" {
		t.Errorf("username: got %q, want %q", created.Username, "Ama Mensah")
	}
	if created.Role != models.RoleTrainee {
		t.Errorf("role: got %q, want %q", created.Role, models.RoleTrainee)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if !userstore.CheckPassword(&created, "password123") {
		t.Error("expected password to verify")
	}
	if userstore.CheckPassword(&created, "wrong-password") {
		t.Error("expected wrong password to fail")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newUser(t, "X", "x@example.com", "superuser")); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestStore_Create_IgnoresAssignmentFields(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agentID := primitive.NewObjectID()
	u := newUser(t, "T", "t@example.com", models.RoleTrainee)
	u.AgentID = &agentID
	u.AgentName = "someone"

	created, err := store.Create(ctx, u)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.AgentID != nil || created.AgentName != "" {
		t.Error("expected assignment fields to be cleared on create")
	}
}

func TestStore_Create_DuplicateEmail_CaseInsensitive(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newUser(t, "One", "dup@example.com", models.RoleTrainee)); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, newUser(t, "Two", "DUP@Example.com", models.RoleAgent))
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	exists, err := store.EmailExists(ctx, " Dup@EXAMPLE.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("expected EmailExists to match folded email")
	}
}

func TestStore_GetByEmailAndRole(t *testing.T) {
	db, store := setup(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := fixtures.CreateAgent(ctx, "Kofi", "kofi@example.com")

	got, err := store.GetByEmail(ctx, "KOFI@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != agent.ID {
		t.Errorf("GetByEmail returned %v, want %v", got.ID, agent.ID)
	}

	if _, err := store.GetByIDAndRole(ctx, agent.ID, models.RoleAgent); err != nil {
		t.Errorf("GetByIDAndRole(agent) failed: %v", err)
	}
	if _, err := store.GetByIDAndRole(ctx, agent.ID, models.RoleTrainee); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("GetByIDAndRole(trainee) expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("GetByID(missing) expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListAndTraineesOfAgent(t *testing.T) {
	db, store := setup(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := fixtures.CreateAgent(ctx, "Kofi", "kofi@example.com")
	other := fixtures.CreateAgent(ctx, "Yaw", "yaw@example.com")
	t1 := fixtures.CreateTrainee(ctx, "Ama", "ama@example.com")
	t2 := fixtures.CreateTrainee(ctx, "Esi", "esi@example.com")
	fixtures.CreateTrainee(ctx, "Kwame", "kwame@example.com")
	fixtures.LinkTrainee(ctx, agent, t1)
	fixtures.LinkTrainee(ctx, other, t2)

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("List(all): got %d, want 5", len(all))
	}
	for _, u := range all {
		if u.PasswordHash != "" {
			t.Error("expected password_hash to be projected out")
		}
	}

	trainees, err := store.List(ctx, models.RoleTrainee)
	if err != nil {
		t.Fatalf("List(trainee) failed: %v", err)
	}
	if len(trainees) != 3 {
		t.Errorf("List(trainee): got %d, want 3", len(trainees))
	}

	mine, err := store.ListTraineesOfAgent(ctx, agent.ID)
	if err != nil {
		t.Fatalf("ListTraineesOfAgent failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != t1.ID {
		t.Errorf("ListTraineesOfAgent: got %v, want only %v", mine, t1.ID)
	}
}

func TestStore_Delete(t *testing.T) {
	db, store := setup(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateTrainee(ctx, "Ama", "ama@example.com")

	n, err := store.Delete(ctx, u.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted count: got %d, want 1", n)
	}
	n, err = store.Delete(ctx, u.ID)
	if err != nil || n != 0 {
		t.Errorf("second Delete: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db, _ := setup(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := fixtures.CreateAgent(ctx, "Kofi", "kofi@example.com")
	f := userstore.NewFetcher(db, zap.NewNop())

	got := f.FetchUser(ctx, agent.ID.Hex())
	if got == nil {
		t.Fatal("expected user")
	}
	if got.Role != models.RoleAgent || got.Username != "Kofi" || got.Email != "kofi@example.com" {
		t.Errorf("FetchUser: got %+v", got)
	}

	if f.FetchUser(ctx, "not-hex") != nil {
		t.Error("expected nil for malformed id")
	}
	if f.FetchUser(ctx, primitive.NewObjectID().Hex()) != nil {
		t.Error("expected nil for missing user")
	}
}
