// Package models defines the persistent data structures of the user subsystem.
package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthMethod records which login strategy may authenticate a user account.
type AuthMethod string

const (
	// AuthMethodLocal indicates the user authenticates with a local database password.
	AuthMethodLocal AuthMethod = "local"
	// AuthMethodOIDC indicates the user authenticates via OpenID Connect (OIDC).
	AuthMethodOIDC AuthMethod = "oidc"
)

// UnusablePassword is stored for accounts that must never authenticate with
// a password, e.g. users provisioned from OIDC claims. It is not a valid
// argon2id hash, so VerifyPassword always rejects it.
const UnusablePassword = "*"

// User represents a user account in the system.
// Users authenticate either with a local password or via OIDC; the
// AuthMethod tag decides which strategy may sign them in.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// FullName is the user's display name.
	FullName string `gorm:"size:255"`
	// Email is the user's email address.
	Email string `gorm:"size:255;not null"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255"`
	// Admin indicates whether the user has administrator rights.
	Admin bool `gorm:"not null;default:false"`
	// AuthMethod indicates how this user authenticates (local or oidc).
	AuthMethod AuthMethod `gorm:"type:varchar(20);not null;default:'local'"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local user passwords.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Debug().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
