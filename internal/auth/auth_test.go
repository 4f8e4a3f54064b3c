package auth_test

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/tenxcards/internal/auth"
	"github.com/vytor/tenxcards/internal/config"
	"github.com/vytor/tenxcards/internal/errors"
)

const secret = "test-secret"

func signToken(t *testing.T, key string, method jwt.SigningMethod, claims auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims() auth.Claims {
	now := time.Now()
	return auth.Claims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func newStrategy(t *testing.T) *auth.JWTStrategy {
	s, err := auth.NewJWTStrategy(auth.JWTConfig{Secret: secret, Audience: "authenticated"})
	require.NoError(t, err)
	return s
}

func TestJWTStrategy_ValidToken(t *testing.T) {
	id, err := newStrategy(t).Authenticate(context.Background(), signToken(t, secret, jwt.SigningMethodHS256, validClaims()))

	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: "user-123", Email: "user@example.com"}, id)
}

func TestJWTStrategy_Rejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"other"}

	noSubject := validClaims()
	noSubject.Subject = ""

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.SigningMethodHS256, validClaims())},
		{"wrong method", signToken(t, secret, jwt.SigningMethodHS384, validClaims())},
		{"expired", signToken(t, secret, jwt.SigningMethodHS256, expired)},
		{"wrong audience", signToken(t, secret, jwt.SigningMethodHS256, wrongAud)},
		{"no subject", signToken(t, secret, jwt.SigningMethodHS256, noSubject)},
		{"no expiry", signToken(t, secret, jwt.SigningMethodHS256, noExpiry)},
	}

	s := newStrategy(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Authenticate(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
		})
	}
}

func TestJWTStrategy_IssuerChecked(t *testing.T) {
	s, err := auth.NewJWTStrategy(auth.JWTConfig{Secret: secret, Issuer: "https://auth.example.com"})
	require.NoError(t, err)

	claims := validClaims()
	claims.Issuer = "https://evil.example.com"
	_, err = s.Authenticate(context.Background(), signToken(t, secret, jwt.SigningMethodHS256, claims))
	assert.Error(t, err)

	claims.Issuer = "https://auth.example.com"
	_, err = s.Authenticate(context.Background(), signToken(t, secret, jwt.SigningMethodHS256, claims))
	assert.NoError(t, err)
}

func TestNewJWTStrategy_RequiresSecret(t *testing.T) {
	_, err := auth.NewJWTStrategy(auth.JWTConfig{Secret: " "})
	assert.Error(t, err)
}

func TestFixedIdentity_IgnoresToken(t *testing.T) {
	s := auth.FixedIdentity{Identity: auth.Identity{UserID: "00000000-0000-0000-0000-000000000000", Email: "dev@example.com"}}

	id, err := s.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", id.Email)
}

func TestFromConfig(t *testing.T) {
	s, err := auth.FromConfig(config.Config{AuthMode: config.AuthModeFixed, FixedUserID: "u"})
	require.NoError(t, err)
	assert.IsType(t, auth.FixedIdentity{}, s)

	s, err = auth.FromConfig(config.Config{AuthMode: config.AuthModeJWT, JWTSecret: "x"})
	require.NoError(t, err)
	assert.IsType(t, &auth.JWTStrategy{}, s)

	_, err = auth.FromConfig(config.Config{AuthMode: "magic"})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", auth.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", auth.BearerToken("bearer   abc "))
	assert.Equal(t, "", auth.BearerToken("Basic abc"))
	assert.Equal(t, "", auth.BearerToken(""))
}
