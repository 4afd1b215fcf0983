// Package token issues and parses the signed bearer tokens that back
// authenticated sessions.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/larder-app/larder/internal/db/models"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now //nolint:gochecknoglobals

// ErrSecretEmpty is returned when an Issuer is constructed without a signing secret.
var ErrSecretEmpty = errors.New("token signing secret is empty")

// ErrInvalidToken is returned when a token fails signature or claims validation.
var ErrInvalidToken = errors.New("invalid token")

const (
	// DefaultExpiry is the access token lifetime when none is configured.
	DefaultExpiry = 24 * time.Hour
	// DefaultRememberExpiry is the "remember me" lifetime when none is configured.
	DefaultRememberExpiry = 14 * 24 * time.Hour
)

// Config holds the settings of an Issuer.
type Config struct {
	// Secret is the HMAC signing secret.
	Secret string
	// Issuer is the value of the "iss" claim.
	Issuer string
	// Expiry is the default token lifetime.
	Expiry time.Duration
	// RememberExpiry is the token lifetime used when "remember me" is requested.
	RememberExpiry time.Duration
}

// UserClaims are the claims carried by an issued access token.
type UserClaims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// UserID returns the numeric user ID from the subject claim.
func (c *UserClaims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim: %w", err)
	}

	return id, nil
}

// Issuer creates and validates signed access tokens for authenticated users.
type Issuer struct {
	cfg Config
}

// NewIssuer creates a token issuer from the given config, applying the
// default lifetimes where unset.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretEmpty
	}

	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}

	if cfg.RememberExpiry <= 0 {
		cfg.RememberExpiry = DefaultRememberExpiry
	}

	return &Issuer{cfg: cfg}, nil
}

// Issue creates a signed access token for the user and returns it with its
// time to live. rememberMe selects the long lifetime.
func (i *Issuer) Issue(usr *models.User, rememberMe bool) (string, time.Duration, error) {
	ttl := i.cfg.Expiry
	if rememberMe {
		ttl = i.cfg.RememberExpiry
	}

	now := NowTimeFunc()

	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   strconv.FormatUint(usr.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		Username: usr.Username,
		Admin:    usr.Admin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, ttl, nil
}

// Parse validates a raw token and returns its claims.
func (i *Issuer) Parse(raw string) (*UserClaims, error) {
	claims := new(UserClaims)

	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}

			return []byte(i.cfg.Secret), nil
		},
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
