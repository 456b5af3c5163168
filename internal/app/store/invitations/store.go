// internal/app/store/invitations/store.go
package invitations

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in an invitation code.
	CodeLength = 6
	// DefaultExpiry is how long an invitation code is valid.
	DefaultExpiry = 72 * time.Hour
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the maximum number of code checks per invitation.
	MaxVerifyAttempts = 5
)

var (
	// ErrNotFound is returned when no live invitation exists.
	ErrNotFound = errors.New("invitation not found or expired")
	// ErrInvalidCode is returned when the code does not match, or the
	// invitation was issued for a different role.
	ErrInvalidCode = errors.New("invalid invitation code")
	// ErrTooManyAttempts is returned once MaxVerifyAttempts checks have been made.
	ErrTooManyAttempts = errors.New("too many invitation code attempts")
)

// Invitation is a pending signup invitation tied to one application form.
type Invitation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FormID    primitive.ObjectID `bson:"form_id"`
	Email     string             `bson:"email"`
	Role      string             `bson:"role"`
	CodeHash  string             `bson:"code_hash"`
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index field
	Attempts  int                `bson:"attempts"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages invitation records.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("invitations"),
		expiry: expiry,
	}
}

// Expiry returns how long issued codes stay valid.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// IssueResult carries the plaintext code to send to the applicant.
type IssueResult struct {
	Code      string
	ExpiresAt time.Time
}

// Issue creates an invitation for form, replacing any earlier one for the
// same form. The plaintext code is returned once and only its hash is stored.
func (s *Store) Issue(ctx context.Context, form models.ApplicationForm) (*IssueResult, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	now := time.Now().UTC()
	// _id is left to the server so a replacement keeps the existing one.
	inv := Invitation{
		FormID:    form.ID,
		Email:     normalize.Email(form.Email),
		Role:      form.Role,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.expiry),
		Attempts:  0,
		CreatedAt: now,
	}

	_, err = s.c.ReplaceOne(ctx, bson.M{"form_id": form.ID}, inv, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("store invitation: %w", err)
	}
	return &IssueResult{Code: code, ExpiresAt: inv.ExpiresAt}, nil
}

// Verify checks code against the live invitation for email and role. Every
// call counts as an attempt, so the counter is never rolled back by an
// enclosing transaction; call Verify outside one. The invitation is not
// removed; see Consume.
func (s *Store) Verify(ctx context.Context, email, role, code string) (*Invitation, error) {
	email = normalize.Email(email)
	live := bson.M{
		"email":      email,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	claim := bson.M{"attempts": bson.M{"$lt": MaxVerifyAttempts}}
	for k, v := range live {
		claim[k] = v
	}

	var inv Invitation
	err := s.c.FindOneAndUpdate(ctx, claim,
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.c.CountDocuments(ctx, live, options.Count().SetLimit(1))
		if cerr != nil {
			return nil, cerr
		}
		if n > 0 {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(inv.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}
	if inv.Role != normalize.Role(role) {
		return nil, ErrInvalidCode
	}
	return &inv, nil
}

// Consume deletes a verified invitation. It returns ErrNotFound if the
// invitation was already consumed, which callers treat as a lost race.
func (s *Store) Consume(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore puts back an invitation removed by Consume, keeping its code,
// expiry and attempt count. Restoring one that is already present is a no-op.
func (s *Store) Restore(ctx context.Context, inv Invitation) error {
	_, err := s.c.InsertOne(ctx, inv)
	if err != nil && !wafflemongo.IsDup(err) {
		return fmt.Errorf("restore invitation: %w", err)
	}
	return nil
}

// DeleteByForm removes any invitation issued for the form.
func (s *Store) DeleteByForm(ctx context.Context, formID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"form_id": formID})
	return err
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
