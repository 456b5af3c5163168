package testutil

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

var (
	hashOnce         sync.Once
	testPasswordHash []byte
	hashErr          error
)

func passwordHash(t *testing.T) string {
	hashOnce.Do(func() {
		testPasswordHash, hashErr = bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	})
	if hashErr != nil {
		t.Fatalf("hash password: %v", hashErr)
	}
	return string(testPasswordHash)
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role. The password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash(f.t),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Admin", email, models.RoleAdmin)
}

// CreateAgent inserts an agent user.
func (f *Fixtures) CreateAgent(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, models.RoleAgent)
}

// CreateTrainee inserts a trainee user.
func (f *Fixtures) CreateTrainee(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, models.RoleTrainee)
}

// LinkTrainee writes both sides of an assignment directly, bypassing the
// assignments store's checks.
func (f *Fixtures) LinkTrainee(ctx context.Context, agent, trainee models.User) {
	f.t.Helper()

	users := f.db.Collection("users")
	_, err := users.UpdateByID(ctx, trainee.ID, map[string]any{"$set": map[string]any{
		"agent_id":    agent.ID,
		"agent_name":  agent.Username,
		"agent_email": agent.Email,
	}})
	if err != nil {
		f.t.Fatalf("failed to link trainee: %v", err)
	}
	_, err = users.UpdateByID(ctx, agent.ID, map[string]any{"$push": map[string]any{
		"trainees_assigned": models.TraineeSummary{
			TraineeID: trainee.ID,
			Username:  trainee.Username,
			Email:     trainee.Email,
		},
	}})
	if err != nil {
		f.t.Fatalf("failed to link agent: %v", err)
	}
}

// CreateForm inserts an application form.
func (f *Fixtures) CreateForm(ctx context.Context, role, fullName, email string) models.ApplicationForm {
	f.t.Helper()

	form := models.ApplicationForm{
		ID:           primitive.NewObjectID(),
		Role:         role,
		FullName:     fullName,
		Email:        email,
		PhoneNumber:  "0241234567",
		Gender:       "female",
		Documents:    map[string]string{models.DocIdentityCard: "/files/forms/card.pdf"},
		DocumentKeys: map[string]string{models.DocIdentityCard: "forms/card.pdf"},
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("application_forms").InsertOne(ctx, form); err != nil {
		f.t.Fatalf("failed to create test form: %v", err)
	}
	return form
}

// CreateResource inserts a resource owned by agentID.
func (f *Fixtures) CreateResource(ctx context.Context, agentID primitive.ObjectID, title string) models.Resource {
	f.t.Helper()

	res := models.Resource{
		ID:        primitive.NewObjectID(),
		AgentID:   agentID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("resources").InsertOne(ctx, res); err != nil {
		f.t.Fatalf("failed to create test resource: %v", err)
	}
	return res
}

// CreateTask inserts an assigned task.
func (f *Fixtures) CreateTask(ctx context.Context, agentID, traineeID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	task := models.Task{
		ID:        primitive.NewObjectID(),
		AgentID:   agentID,
		TraineeID: traineeID,
		TaskType:  models.TaskTypeQuiz,
		Title:     title,
		Status:    models.TaskStatusAssigned,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}
