package config

import (
	"github.com/larder-app/larder/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown in seconds
	URL          string // base url for the webserver
}

// Auth groups the settings of all authentication strategies.
type Auth struct {
	Local LocalAuth
	OIDC  OIDCAuth
	Token Token
}

// LocalAuth holds username/password authentication settings.
type LocalAuth struct {
	Enabled bool
}

// Token holds access token issuance settings.
type Token struct {
	Secret string // HMAC signing secret for issued tokens
	Issuer string // "iss" claim of issued tokens

	// Expiry is the access token lifetime in minutes.
	Expiry int
	// RememberExpiry is the lifetime in minutes used when "remember me" is on.
	RememberExpiry int
}

// OIDCAuth holds OpenID Connect authentication settings.
type OIDCAuth struct {
	Enabled      bool
	ProviderURL  string   // the provider's discovery URL (e.g. "https://accounts.google.com")
	ClientID     string   // OAuth2 client identifier
	ClientSecret string   // OAuth2 client secret
	RedirectURL  string   // OAuth2 callback URL
	Scopes       []string // OAuth2 scopes to request (default: openid, profile, email)

	// RequiresGroupClaim enables group based access control: the groups
	// claim must be present and membership decides admission and admin
	// status.
	RequiresGroupClaim bool
	// GroupsClaim is the ID token claim holding the user's groups.
	GroupsClaim string
	// AdminGroup members are made administrators. Empty disables admin mapping.
	AdminGroup string
	// UserGroup members may sign in. Empty admits every authenticated user.
	UserGroup string
	// UserClaim is the claim matched against the local username.
	UserClaim string
	// NameClaim is the claim used as the full name when provisioning.
	NameClaim string
	// SignupEnabled allows provisioning a new user on first login.
	SignupEnabled bool
	// RememberMe issues long-lived tokens for OIDC logins.
	RememberMe bool
}
