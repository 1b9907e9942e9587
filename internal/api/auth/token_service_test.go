package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	ts := NewTokenService(testSecret, "", 0)

	tokenString := signToken(t, testSecret, Claims{
		Email: "mina@example.com",
		Name:  "Mina",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := ts.Verify(context.Background(), tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "auth-123", identity.AuthID)
	assert.Equal(t, "mina@example.com", identity.Email)
	assert.Equal(t, "Mina", identity.Name)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	ts := NewTokenService(testSecret, "", 0)

	tokenString := signToken(t, "some-other-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := ts.Verify(context.Background(), tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	ts := NewTokenService(testSecret, "", 0)

	tokenString := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := ts.Verify(context.Background(), tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	ts := NewTokenService(testSecret, "", 0)

	tokenString := signToken(t, testSecret, Claims{
		Email: "mina@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := ts.Verify(context.Background(), tokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	ts := NewTokenService(testSecret, "", 0)

	_, err := ts.Verify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
