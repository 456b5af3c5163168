// internal/app/system/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 60 * time.Minute

// MinSecretLength is the shortest HMAC secret accepted by NewTokenManager.
const MinSecretLength = 32

var (
	// ErrInvalidToken is returned for malformed, badly signed, or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	errBadAlgorithm = errors.New(`jwt algorithm must be "HS256"|"HS384"|"HS512"`)
	errShortSecret  = fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
)

// Claims is the payload of an access token. ID duplicates Subject so clients
// that read the "id" claim keep working.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed access tokens.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager validates the secret and algorithm and returns a manager.
// A ttl of 0 means DefaultTokenTTL.
func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, errShortSecret
	}
	method, err := signingMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// ValidateAlgorithm reports whether algorithm is a supported HMAC algorithm.
func ValidateAlgorithm(algorithm string) error {
	_, err := signingMethod(algorithm)
	return err
}

func signingMethod(algorithm string) (jwt.SigningMethod, error) {
	switch algorithm {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, errBadAlgorithm
}

// SetClock replaces the time source used for issuing and verifying tokens.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// TTL returns the token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for userID. It returns the token and its expiry.
// JWT dates are whole seconds, so the expiry is rounded up and the token is
// never rejected before now+TTL.
func (m *TokenManager) Issue(userID string) (string, time.Time, error) {
	now := m.now().UTC()
	exp := now.Add(m.ttl)
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		exp = t.Add(time.Second)
	}
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies signature, algorithm, and expiry and returns the user id.
// A token is accepted strictly before its expiry second.
func (m *TokenManager) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	id := claims.ID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}
