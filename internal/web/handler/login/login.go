// Package login serves the login page and handles password login form
// submissions.
package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth"
	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	"github.com/larder-app/larder/internal/web/handler"
	oidchandler "github.com/larder-app/larder/internal/web/handler/auth/oidc"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Form is the login form payload.
type Form struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	local    *auth.LocalProvider
	validate *validator.Validate
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, tokens *token.Issuer) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.local = auth.NewLocalProvider(db, tokens)
	s.validate = validator.New()

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// render draws the login page, optionally with an error message.
func (s *Service) render(c *fiber.Ctx, errMsg string) error {
	data := fiber.Map{
		"title":         s.cfg.Title,
		"local_enabled": s.cfg.Auth.Local.Enabled,
		"oidc_enabled":  s.cfg.Auth.OIDC.Enabled,
		"oidc_login":    oidchandler.LoginPath,
	}
	if errMsg != "" {
		data["error"] = errMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.cfg.Auth.Local.Enabled {
		return s.render(c, ErrLocalAuthDisabled.Error())
	}

	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return s.render(c, ErrInvalidFormData.Error())
	}

	if err := s.validate.Struct(form); err != nil {
		return s.render(c, ErrInvalidFormData.Error())
	}

	cred, err := s.local.Authenticate(auth.PasswordLogin{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		log.Warn().Str("username", form.Username).Msg("failed password login attempt")
		return s.render(c, ErrInvalidCredentials.Error())
	}

	setAccessTokenCookie(c, s.cfg, cred)

	log.Info().Str("username", form.Username).Msg("user logged in with password")

	return c.Redirect("/profile")
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
