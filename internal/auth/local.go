package auth

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	user "github.com/larder-app/larder/internal/db/controller/user"
	"github.com/larder-app/larder/internal/db/models"

	"github.com/larder-app/larder/internal/auth/token"
)

// PasswordLogin is the login data consumed by the local strategy.
type PasswordLogin struct {
	Username string
	Password string
}

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db     *gorm.DB
	tokens *token.Issuer
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB, tokens *token.Issuer) *LocalProvider {
	return &LocalProvider{
		db:     db,
		tokens: tokens,
	}
}

// Authenticate authenticates a user against the local database and issues a
// credential on success. Only accounts with the local auth method are
// considered; provisioned OIDC accounts can not sign in with a password.
func (p *LocalProvider) Authenticate(data PasswordLogin) (*Credential, error) {
	usr, err := user.GetByUsernameAndMethod(p.db, data.Username, models.AuthMethodLocal)

	switch {
	case errors.Is(err, user.ErrUserNotFound), errors.Is(err, user.ErrUsernameEmpty):
		return nil, ErrUserNotFound
	case err != nil:
		log.Error().Err(err).Str("provider", "local").Msg("failed to look up user")
		return nil, ErrUserNotFound
	}

	if usr.Password == models.UnusablePassword {
		return nil, ErrUserAccountUnusable
	}

	if !usr.VerifyPassword(data.Password) {
		return nil, ErrInvalidPassword
	}

	raw, ttl, err := p.tokens.Issue(usr, false)
	if err != nil {
		log.Error().Err(err).Str("provider", "local").Msg("failed to issue access token")
		return nil, ErrTokenIssuance
	}

	return &Credential{Token: raw, ExpiresIn: ttl}, nil
}

// CreateUser creates a new local user with a hashed password.
func (p *LocalProvider) CreateUser(username, email, password, fullName string, admin bool) (*models.User, error) {
	usr := &models.User{
		Username:   username,
		FullName:   fullName,
		Email:      email,
		Password:   models.HashPassword(password),
		Admin:      admin,
		AuthMethod: models.AuthMethodLocal,
	}

	if err := user.Create(p.db, usr); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return usr, nil
}

// ChangePassword changes a local user's password after verifying the old one.
func (p *LocalProvider) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	usr, err := user.GetByID(p.db, userID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if usr.AuthMethod != models.AuthMethodLocal || usr.Password == models.UnusablePassword {
		return ErrUserAccountUnusable
	}

	if !usr.VerifyPassword(oldPassword) {
		return ErrInvalidPassword
	}

	usr.Password = models.HashPassword(newPassword)

	return user.Update(p.db, usr) //nolint:wrapcheck
}
