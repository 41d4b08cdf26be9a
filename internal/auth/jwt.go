// Package auth issues and verifies the operator tokens guarding the catalog API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is stamped on every token and required when parsing.
const Issuer = "sitecatalog"

// Operator roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

var (
	// ErrInvalidToken wraps every parse and verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownRole is returned when issuing a token for a role the API does not know.
	ErrUnknownRole = errors.New("unknown role")
)

// Claims is the token payload. Subject holds the operator's UUID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// OperatorID parses the subject as a UUID.
func (c *Claims) OperatorID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager constructs a manager. A non-positive ttl falls back to one day.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken issues a token for operator with the given role.
func (m *JWTManager) GenerateToken(operator uuid.UUID, email, role string) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("jwt secret must not be empty")
	}
	if operator == uuid.Nil {
		return "", errors.New("operator id must not be nil")
	}
	if role != RoleAdmin && role != RoleMember {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   operator.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email: email,
		Role:  role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, issuer and expiry, and requires a UUID subject.
func (m *JWTManager) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.OperatorID(); err != nil {
		return nil, fmt.Errorf("%w: subject is not an operator id", ErrInvalidToken)
	}
	return claims, nil
}
