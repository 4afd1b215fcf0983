// Package web assembles the Fiber application serving the Larder UI.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/config"
	fiberlogger "github.com/larder-app/larder/internal/logger/adapter/fiber"
	adminuser "github.com/larder-app/larder/internal/web/handler/admin/user"
	oidchandler "github.com/larder-app/larder/internal/web/handler/auth/oidc"
	"github.com/larder-app/larder/internal/web/handler/login"
	"github.com/larder-app/larder/internal/web/handler/logout"
	"github.com/larder-app/larder/internal/web/handler/profile"
)

// CheckAlivePath answers load balancer health checks.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App    *fiber.App
	cfg    *config.Config
	db     *gorm.DB
	tokens *token.Issuer
	alive  atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the server down
// gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the health check first so
	// the load balancer stops routing here before the listener goes away.
	if s.cfg.Webserver.ShutDownTime > 0 {
		log.Info().Msgf(
			"graceful shutdown: failing health checks for %d seconds before stopping",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, tokens *token.Issuer) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if tokens == nil {
		panic("token issuer cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in dev mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
			},
		),
	)

	service := &Service{
		cfg:    cfg,
		App:    app,
		db:     db,
		tokens: tokens,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	// redirect authenticated state around the login page
	app.Use(AuthRedirectMiddleware(tokens))

	// init handlers (they register their own routes and guards)
	initHandlers(app, cfg, db, tokens)

	// redirect root to the profile page
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(profile.Path)
	})

	return service
}

// initHandlers registers all handler services on the app.
func initHandlers(app *fiber.App, cfg *config.Config, db *gorm.DB, tokens *token.Issuer) {
	if err := oidchandler.Handler.Init(app, cfg, db, tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init oidc handler")
	}

	if err := login.Handler.Init(app, cfg, db, tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	if err := logout.Handler.Init(app, cfg, db, tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init logout handler")
	}

	if err := profile.Handler.Init(app, cfg, db, tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init profile handler")
	}

	if err := adminuser.Handler.Init(app, cfg, db, tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init admin user handler")
	}
}
