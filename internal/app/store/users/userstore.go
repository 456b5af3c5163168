package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost for password hashes.
const BcryptCost = bcrypt.DefaultCost

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	errBadRole  = errors.New(`role must be "trainee"|"agent"|"admin"`)
	errNoHash   = errors.New("password hash is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches u's stored hash.
func CheckPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M) (*models.User, error) {
	var u models.User
	if err := c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne(ctx, s.c, bson.M{"_id": id})
}

// GetByIDAndRole loads a user by ObjectID, returning ErrNotFound if the user
// does not exist or has a different role.
func (s *Store) GetByIDAndRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	return findOne(ctx, s.c, bson.M{"_id": id, "role": role})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne(ctx, s.c, bson.M{"email": normalize.Email(email)})
}

// EmailExists reports whether any user has this (folded) email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": normalize.Email(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new user after normalizing & validating fields.
// u.PasswordHash must already be set (see HashPassword).
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = htmlsanitize.Plain(normalize.Name(u.Username))
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if u.PasswordHash == "" {
		return models.User{}, errNoHash
	}
	// Assignment links are only ever written by the assignments store.
	u.AgentID = nil
	u.AgentName = ""
	u.AgentEmail = ""
	u.TraineesAssigned = nil

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// List returns users sorted by creation time (newest first). An empty role
// lists everyone.
func (s *Store) List(ctx context.Context, role string) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return s.find(ctx, filter)
}

// ListTraineesOfAgent returns the trainees whose agent_id is agentID.
func (s *Store) ListTraineesOfAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.User, error) {
	return s.find(ctx, bson.M{"role": models.RoleTrainee, "agent_id": agentID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
// Assignment links pointing at the user are cleaned up by the assignments store.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
