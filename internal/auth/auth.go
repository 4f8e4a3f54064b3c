// Package auth turns a bearer token into a user identity. The strategy is
// chosen once at startup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/vytor/tenxcards/internal/config"
	apperrors "github.com/vytor/tenxcards/internal/errors"
)

const defaultLeeway = 30 * time.Second

// ErrMissingToken is returned when a strategy that needs a token gets none.
var ErrMissingToken = errors.New("missing access token")

type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Strategy authenticates an access token. Failures are UNAUTHORIZED
// *errors.AppError values.
type Strategy interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// FromConfig selects the strategy named by cfg.AuthMode.
func FromConfig(cfg config.Config) (Strategy, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return NewJWTStrategy(JWTConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		})
	case config.AuthModeFixed:
		return FixedIdentity{Identity: Identity{UserID: cfg.FixedUserID, Email: cfg.FixedUserEmail}}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// JWTStrategy verifies HS256 access tokens issued by the hosted auth
// provider.
type JWTStrategy struct {
	secret []byte
	opts   []jwt.ParserOption
}

// Claims are the access-token claims the provider issues.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewJWTStrategy(cfg JWTConfig) (*JWTStrategy, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwt strategy requires a secret")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &JWTStrategy{secret: []byte(cfg.Secret), opts: opts}, nil
}

func (s *JWTStrategy) Authenticate(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, unauthorized(ErrMissingToken)
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, s.opts...)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return Identity{}, unauthorized(err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return Identity{}, unauthorized(errors.New("token subject missing"))
	}
	return Identity{UserID: sub, Email: claims.Email}, nil
}

// FixedIdentity authenticates every request, with or without a token, as
// one configured user. It is meant for local development.
type FixedIdentity struct {
	Identity Identity
}

func (f FixedIdentity) Authenticate(context.Context, string) (Identity, error) {
	return f.Identity, nil
}

func unauthorized(cause error) error {
	e := apperrors.NewUnauthorizedError("Invalid or expired token")
	if errors.Is(cause, ErrMissingToken) {
		e.Message = "Missing authorization token"
	}
	e.Err = cause
	return e
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
