// Package server wires configuration, storage, services, the expiry sweeper
// and the HTTP API into a runnable application.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/sweeper"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	repomanager  repomanager.RepositoryManager
	tokenService *services.TokenService
	userService  *services.UserService
	sweeper      *sweeper.Sweeper
}

// NewRepositoryManager opens the storage backend selected by c.Storage.
func NewRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.Storage {
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StoragePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}
}

// NewApp opens storage, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	gin.SetMode(c.GinMode)

	rm, err := NewRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, err
	}

	ts := services.NewTokenService(rm, services.TokenConfig{
		AccessSecret:  []byte(c.AccessTokenSecret),
		RefreshSecret: []byte(c.RefreshTokenSecret),
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	}, logger)
	us := services.NewUserService(rm, ts, password.NewBcrypt(c.BcryptCost), logger)
	sw := sweeper.New(rm, c.SweepInterval, logger)

	return &App{
		config:       c,
		logger:       logger,
		repomanager:  rm,
		tokenService: ts,
		userService:  us,
		sweeper:      sw,
	}, nil
}

func (app *App) Users() *services.UserService {
	return app.userService
}

func (app *App) Sweeper() *sweeper.Sweeper {
	return app.sweeper
}

func (app *App) Close() error {
	return app.repomanager.Close()
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewServer(app.config.ListenAddr, app.logger, app.userService, app.tokenService,
		gs.WithCORS(app.config.CORSAllowedOrigins))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// stops the sweeper and closes storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(ctx, cancelFunc)

	if err := app.sweeper.Start(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.sweeper.Stop()
	if err := app.Close(); err != nil {
		return fmt.Errorf("storage close error: %w", err)
	}

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
