// Package logout clears the session cookie and returns to the login page.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth"
	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	"github.com/larder-app/larder/internal/web/handler"
)

// Path is the path to the logout endpoint.
const Path = "/logout"

// Service is the logout handler service.
type Service struct{}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *token.Issuer) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	app.Get(Path, s.Get)

	return nil
}

// Get clears the access token cookie and redirects to the login page.
func (s *Service) Get(c *fiber.Ctx) error {
	c.ClearCookie(auth.TokenCookie)

	return c.Redirect("/login")
}
