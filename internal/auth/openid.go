package auth

import (
	"errors"
	"slices"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	user "github.com/larder-app/larder/internal/db/controller/user"
	"github.com/larder-app/larder/internal/db/models"

	"github.com/larder-app/larder/internal/auth/token"
)

// OIDCOptions configures the OpenID Connect login behavior. It is passed
// explicitly so the provider has no hidden dependency on global settings.
type OIDCOptions struct {
	// RequiresGroupClaim enables group based access control.
	RequiresGroupClaim bool
	// GroupsClaim is the claim holding the user's groups.
	GroupsClaim string
	// AdminGroup members become administrators. Empty disables admin mapping.
	AdminGroup string
	// UserGroup members may sign in. Empty admits every authenticated user.
	UserGroup string
	// UserClaim is the claim matched against the local username.
	UserClaim string
	// NameClaim is the claim used as the full name when provisioning.
	NameClaim string
	// SignupEnabled allows provisioning a new user on first login.
	SignupEnabled bool
	// RememberMe issues long-lived tokens.
	RememberMe bool
}

// OpenIDProvider authenticates a user from the validated claims of an OIDC
// ID token. Token verification itself happens upstream (see OIDCClient);
// this provider only decides whether the asserted identity may sign in,
// provisions or updates the matching user record, and issues a credential.
type OpenIDProvider struct {
	opts   OIDCOptions
	db     *gorm.DB
	tokens *token.Issuer
}

// NewOpenIDProvider creates a new claims based login provider.
func NewOpenIDProvider(db *gorm.DB, tokens *token.Issuer, opts OIDCOptions) *OpenIDProvider {
	return &OpenIDProvider{
		opts:   opts,
		db:     db,
		tokens: tokens,
	}
}

// requiredClaims returns the claim names that must be present for a login
// attempt to be considered at all.
func (p *OpenIDProvider) requiredClaims() []string {
	required := []string{p.opts.NameClaim, "email", p.opts.UserClaim}
	if p.opts.RequiresGroupClaim {
		required = append(required, p.opts.GroupsClaim)
	}

	return required
}

// Authenticate attempts to authenticate a user from identity claims.
//
// Every failure is a refusal: the credential is nil and the error is one of
// the package's sentinel errors. The reason is logged, never returned in
// detail, and no database error escapes. At most one user row is written
// per call.
func (p *OpenIDProvider) Authenticate(claims Claims) (*Credential, error) {
	if len(claims) == 0 {
		log.Error().Str("provider", "oidc").Msg("no claims in the id token")
		return nil, ErrInsufficientClaims
	}

	if missing := claims.missing(p.requiredClaims()); len(missing) > 0 {
		log.Error().Str("provider", "oidc").
			Strs("missing", missing).
			Msg("required claims not present in the id token")

		return nil, ErrInsufficientClaims
	}

	var isAdmin bool

	if p.opts.RequiresGroupClaim {
		groups := claims.StringList(p.opts.GroupsClaim)
		log.Debug().Str("provider", "oidc").Strs("groups", groups).Msg("user groups from claims")

		// Check admin group first
		isAdmin = p.opts.AdminGroup != "" && slices.Contains(groups, p.opts.AdminGroup)
		if isAdmin {
			log.Debug().Str("provider", "oidc").Str("group", p.opts.AdminGroup).Msg("user has admin group")
		}

		// An unconfigured user group admits everyone who got this far.
		isValidUser := p.opts.UserGroup == "" || slices.Contains(groups, p.opts.UserGroup)

		if !isValidUser && !isAdmin {
			log.Warn().Str("provider", "oidc").
				Strs("groups", groups).
				Strs("required_one_of", []string{p.opts.UserGroup, p.opts.AdminGroup}).
				Msg("user does not have required group membership")

			return nil, ErrGroupMembership
		}
	}

	usr, err := user.GetByUsernameAndMethod(p.db, claims.String(p.opts.UserClaim), models.AuthMethodOIDC)

	switch {
	case errors.Is(err, user.ErrUserNotFound):
		// Also hit when the username exists under another auth method:
		// such accounts must not silently gain OIDC sign-in.
		return p.signup(claims, isAdmin)
	case err != nil:
		log.Error().Err(err).Str("provider", "oidc").Msg("failed to look up user")
		return nil, ErrProvisioningFailed
	}

	// Group membership is the source of truth for admin status on every
	// login, as long as an admin group is actually configured.
	if p.opts.RequiresGroupClaim && p.opts.AdminGroup != "" && usr.Admin != isAdmin {
		if isAdmin {
			log.Debug().Str("provider", "oidc").Str("username", usr.Username).Msg("setting user as admin")
		} else {
			log.Debug().Str("provider", "oidc").Str("username", usr.Username).Msg("removing user as admin")
		}

		if err = user.SetAdmin(p.db, usr.ID, isAdmin); err != nil {
			log.Error().Err(err).Str("provider", "oidc").Msg("failed to update admin status")
			return nil, ErrProvisioningFailed
		}

		usr.Admin = isAdmin
	}

	return p.issue(usr)
}

// signup provisions a new user from the claims, when allowed.
func (p *OpenIDProvider) signup(claims Claims, isAdmin bool) (*Credential, error) {
	if !p.opts.SignupEnabled {
		log.Debug().Str("provider", "oidc").
			Msg("no user found, not creating a new user - new user creation is disabled")

		return nil, ErrSignupDisabled
	}

	log.Debug().Str("provider", "oidc").Msg("no user found, creating new user from claims")

	// Some identity providers don't send a username claim at all, so fall
	// back through the common ones to the configured user claim (default
	// email).
	var username string

	switch {
	case claims.Has("preferred_username"):
		username = claims.String("preferred_username")
	case claims.Has("username"):
		username = claims.String("username")
	default:
		username = claims.String(p.opts.UserClaim)
	}

	usr := &models.User{
		Username:   username,
		Password:   models.UnusablePassword,
		FullName:   claims.String(p.opts.NameClaim),
		Email:      claims.String("email"),
		Admin:      isAdmin,
		AuthMethod: models.AuthMethodOIDC,
	}

	if err := user.Create(p.db, usr); err != nil {
		log.Error().Err(err).Str("provider", "oidc").Str("username", username).
			Msg("failed to create user")

		return nil, ErrProvisioningFailed
	}

	log.Info().Str("provider", "oidc").Str("username", usr.Username).
		Bool("admin", usr.Admin).
		Msg("created new user from identity claims")

	return p.issue(usr)
}

// issue creates the session credential for an authenticated user.
func (p *OpenIDProvider) issue(usr *models.User) (*Credential, error) {
	raw, ttl, err := p.tokens.Issue(usr, p.opts.RememberMe)
	if err != nil {
		log.Error().Err(err).Str("provider", "oidc").Msg("failed to issue access token")
		return nil, ErrTokenIssuance
	}

	return &Credential{Token: raw, ExpiresIn: ttl}, nil
}
