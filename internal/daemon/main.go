// Package daemon boots the Larder application: it opens the database,
// migrates the schema, seeds the first admin account and starts the web
// service.
package daemon

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	"github.com/larder-app/larder/internal/db/dsn"
	"github.com/larder-app/larder/internal/db/models"
	"github.com/larder-app/larder/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	go d.webService.WaitShutdown()

	return d.webService.Start(addr)
}

// openDatabase opens the configured gorm backend.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	default: // mysql
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("engine", cfg.DB.GormEngine).Msg("failed to open database")
		return nil
	}

	if err = db.AutoMigrate(&models.User{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	tokens, err := token.NewIssuer(token.Config{
		Secret:         cfg.Auth.Token.Secret,
		Issuer:         cfg.Auth.Token.Issuer,
		Expiry:         time.Duration(cfg.Auth.Token.Expiry) * time.Minute,
		RememberExpiry: time.Duration(cfg.Auth.Token.RememberExpiry) * time.Minute,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token issuer")
		return nil
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, tokens),
	}
}
