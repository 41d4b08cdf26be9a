package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWTManager_GenerateAndParse(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	operator := uuid.New()
	token, err := manager.GenerateToken(operator, "ops@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != operator.String() || claims.Email != "ops@example.com" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if id, err := claims.OperatorID(); err != nil || id != operator {
		t.Fatalf("expected operator id %s, got %s (%v)", operator, id, err)
	}

	if _, err := manager.ParseToken(token + "tampered"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestJWTManager_GenerateRejects(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour).GenerateToken(uuid.New(), "a@b.c", RoleAdmin); err == nil {
		t.Fatalf("expected error when secret is empty")
	}
	manager := NewJWTManager("secret", time.Hour)
	if _, err := manager.GenerateToken(uuid.Nil, "a@b.c", RoleAdmin); err == nil {
		t.Fatalf("expected error for nil operator")
	}
	if _, err := manager.GenerateToken(uuid.New(), "a@b.c", "root"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	manager.now = func() time.Time { return issued }
	token, err := manager.GenerateToken(uuid.New(), "a@b.c", RoleMember)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager.now = time.Now
	if _, err := manager.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestJWTManager_ForeignTokens(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	noExpiry := valid
	noExpiry.ExpiresAt = nil
	badSubject := valid
	badSubject.Subject = "user-1"

	tokens := map[string]string{
		"wrong issuer": sign(&Claims{RegisteredClaims: wrongIssuer}, jwt.SigningMethodHS256, []byte("secret")),
		"no expiry":    sign(&Claims{RegisteredClaims: noExpiry}, jwt.SigningMethodHS256, []byte("secret")),
		"bad subject":  sign(&Claims{RegisteredClaims: badSubject}, jwt.SigningMethodHS256, []byte("secret")),
		"other method": sign(&Claims{RegisteredClaims: valid}, jwt.SigningMethodHS512, []byte("secret")),
		"other secret": sign(&Claims{RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("nope")),
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			if _, err := manager.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
