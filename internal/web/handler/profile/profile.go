// Package profile renders the signed-in user's account page and handles
// password changes for local accounts.
package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth"
	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	user "github.com/larder-app/larder/internal/db/controller/user"
	"github.com/larder-app/larder/internal/db/models"
	"github.com/larder-app/larder/internal/web/handler"
)

const (
	// Path is the path to the profile page.
	Path = handler.RootPath + "profile"

	// TemplateName is the name of the profile template.
	TemplateName = "profile"
)

// Service is the profile handler service.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
}

// Handler is the profile handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the profile handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, tokens *token.Issuer) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.local = auth.NewLocalProvider(db, tokens)

	app.Get(Path, auth.RequireUser(tokens), s.Get)
	app.Post(Path+"/password", auth.RequireUser(tokens), s.ChangePassword)

	return nil
}

// currentUser loads the user record behind the validated token claims.
func (s *Service) currentUser(c *fiber.Ctx) (*models.User, error) {
	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		return nil, auth.ErrUserNotFound
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, auth.ErrUserNotFound
	}

	return user.GetByID(s.db, id) //nolint:wrapcheck
}

// render draws the profile page for the given user.
func (s *Service) render(c *fiber.Ctx, usr *models.User, errMsg string) error {
	data := fiber.Map{
		"title":    s.cfg.Title,
		"username": usr.Username,
		"fullname": usr.FullName,
		"email":    usr.Email,
		"admin":    usr.Admin,
		"local":    usr.AuthMethod == models.AuthMethodLocal,
	}
	if errMsg != "" {
		data["error"] = errMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}

// Get handles the profile page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	usr, err := s.currentUser(c)
	if err != nil {
		log.Error().Err(err).Msg("failed to load user for profile page")
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	return s.render(c, usr, "")
}

// ChangePassword handles the password change form for local accounts.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	usr, err := s.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	oldPassword := c.FormValue("old_password")
	newPassword := c.FormValue("new_password")

	if oldPassword == "" || newPassword == "" {
		return s.render(c, usr, "both the old and the new password are required")
	}

	if err = s.local.ChangePassword(usr.ID, oldPassword, newPassword); err != nil {
		log.Warn().Err(err).Str("username", usr.Username).Msg("password change rejected")
		return s.render(c, usr, "password change rejected")
	}

	log.Info().Str("username", usr.Username).Msg("user changed password")

	return c.Redirect(Path)
}
