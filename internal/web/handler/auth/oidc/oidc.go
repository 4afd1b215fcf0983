package oidc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth"
	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	"github.com/larder-app/larder/internal/web/handler"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for the OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// LogoutPath is the path for OIDC logout.
	LogoutPath = handler.RootPath + "auth/oidc/logout"

	// stateExpiry is how long a state token stays valid.
	stateExpiry = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	client   *auth.OIDCClient
	resolver *auth.OpenIDProvider

	stateMu    sync.Mutex
	stateStore map[string]time.Time
}

// Handler is the OIDC handler.
var Handler = Service{ //nolint:gochecknoglobals
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler. When OIDC is disabled or the provider
// cannot be reached, the routes are simply not registered and the rest of
// the web service keeps working.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, tokens *token.Issuer) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	if !cfg.Auth.OIDC.Enabled {
		log.Info().Msg("oidc authentication is disabled by configuration")
		return nil
	}

	client, err := auth.NewOIDCClient(context.Background(), &auth.OIDCClientConfig{
		Enabled:      cfg.Auth.OIDC.Enabled,
		ProviderURL:  cfg.Auth.OIDC.ProviderURL,
		ClientID:     cfg.Auth.OIDC.ClientID,
		ClientSecret: cfg.Auth.OIDC.ClientSecret,
		RedirectURL:  cfg.Auth.OIDC.RedirectURL,
		Scopes:       cfg.Auth.OIDC.Scopes,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize oidc client, oidc login will be unavailable")
		return nil
	}

	s.client = client
	s.resolver = auth.NewOpenIDProvider(db, tokens, auth.OIDCOptions{
		RequiresGroupClaim: cfg.Auth.OIDC.RequiresGroupClaim,
		GroupsClaim:        cfg.Auth.OIDC.GroupsClaim,
		AdminGroup:         cfg.Auth.OIDC.AdminGroup,
		UserGroup:          cfg.Auth.OIDC.UserGroup,
		UserClaim:          cfg.Auth.OIDC.UserClaim,
		NameClaim:          cfg.Auth.OIDC.NameClaim,
		SignupEnabled:      cfg.Auth.OIDC.SignupEnabled,
		RememberMe:         cfg.Auth.OIDC.RememberMe,
	})

	log.Info().Str("provider_url", cfg.Auth.OIDC.ProviderURL).Msg("oidc authentication provider initialized")

	// register routes
	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
	app.Get(LogoutPath, s.Logout)

	go s.cleanupStates()

	return nil
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.client == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	s.stateMu.Lock()
	s.stateStore[state] = time.Now().Add(stateExpiry)
	s.stateMu.Unlock()

	return c.Redirect(s.client.GetAuthURL(state))
}

// Callback handles the OIDC callback: it verifies the state, exchanges the
// authorization code for verified identity claims and resolves them into a
// signed-in user.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.client == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Error().Msg("missing code or state in oidc callback")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	if !s.consumeState(state) {
		log.Error().Msg("invalid or expired state token in oidc callback")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state token")
	}

	claims, err := s.client.Exchange(c.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oidc code exchange failed")
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	cred, err := s.resolver.Authenticate(claims)
	if err != nil {
		// the resolver already logged the reason
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	setAccessTokenCookie(c, s.cfg, cred)

	return c.Redirect("/profile")
}

// Logout clears the session cookie and redirects to the provider's end
// session endpoint when it advertises one.
func (s *Service) Logout(c *fiber.Ctx) error {
	c.ClearCookie(auth.TokenCookie)

	if s.client != nil {
		if logoutURL := s.client.GetLogoutURL("", s.cfg.Webserver.URL); logoutURL != "" {
			return c.Redirect(logoutURL)
		}
	}

	return c.Redirect("/login")
}

// consumeState validates a state token and removes it, expired or not.
func (s *Service) consumeState(state string) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

// cleanupStates periodically removes expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.stateMu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.stateMu.Unlock()
	}
}

// setAccessTokenCookie stores the issued credential in the session cookie.
func setAccessTokenCookie(c *fiber.Ctx, cfg *config.Config, cred *auth.Credential) {
	cookie := &fiber.Cookie{
		Name:     auth.TokenCookie,
		Value:    cred.Token,
		MaxAge:   int(cred.ExpiresIn.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)
}
