package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/config"
	user "github.com/larder-app/larder/internal/db/controller/user"
	"github.com/larder-app/larder/internal/db/models"
)

// seed creates the default admin account when the user table is empty, so
// a fresh installation can be signed into.
func seed(_ *config.Config, db *gorm.DB) {
	count, err := user.Count(db)
	if err != nil {
		log.Error().Err(err).Msg("failed to count users for seeding")
		return
	}

	if count > 0 {
		return
	}

	err = user.Create(db, &models.User{
		Username:   "admin",
		FullName:   "Administrator",
		Email:      "admin@localhost",
		Password:   models.HashPassword("changeme"),
		Admin:      true,
		AuthMethod: models.AuthMethodLocal,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to seed default admin user")
		return
	}

	log.Warn().Msg("seeded default admin user, change its password after first login")
}
