// Package user provides the administration page listing all user accounts.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth"
	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	usercontroller "github.com/larder-app/larder/internal/db/controller/user"
	"github.com/larder-app/larder/internal/web/handler"
)

const (
	// Path is the path to the user administration page.
	Path = handler.RootPath + "admin/users"

	// TemplateName is the name of the user list template.
	TemplateName = "admin/users"
)

// Service is the user administration handler service.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the user administration handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the user administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, tokens *token.Issuer) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, auth.RequireAdmin(tokens), s.Get)

	return nil
}

// Get handles the user list rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	users, err := usercontroller.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	return c.Render(TemplateName, fiber.Map{
		"title": s.cfg.Title,
		"users": users,
	}, handler.BaseLayout)
}
