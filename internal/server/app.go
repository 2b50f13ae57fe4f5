// Package server wires the filekeeper components together: it prepares the
// data directory, builds the services and runs the HTTP endpoint until a
// termination signal arrives.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/dmitrijs2005/filekeeper/internal/server/users"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
}

// NewApp logs JSON to stdout at the configured level.
func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.NewJSON(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	return newApp(c, logger)
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	if err := initDirs(ctx, c.DataDir, logger); err != nil {
		return nil, err
	}

	repo := users.NewFileRepository(filepath.Join(c.DataDir, common.DatabaseFileName))
	created, err := repo.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("user database init error: %w", err)
	}
	if created {
		logger.Info(ctx, "created empty user database", "path", repo.Path())
	}

	as := services.NewAuthService(repo, c.DataDir, logger)
	qs := services.NewQuotaService(as, filex.NewWalker(logger), c.DataDir)
	fs := services.NewFileService(c.DataDir, c.TmpDir, logger)

	return &App{
		config:  c,
		logger:  logger,
		handler: httpapi.NewHandler(as, qs, fs, logger, c.MaxUploadSize),
	}, nil
}

// initDirs makes sure <data>, <data>/user and <data>/public exist.
func initDirs(ctx context.Context, dataDir string, logger logging.Logger) error {
	dirs := []string{
		dataDir,
		filepath.Join(dataDir, common.UserDirName),
		filepath.Join(dataDir, common.PublicDirName),
	}

	for _, d := range dirs {
		created, err := filex.EnsureDir(d)
		if err != nil {
			return fmt.Errorf("data dir init error: %w", err)
		}
		if created {
			logger.Info(ctx, "created directory", "path", d)
		}
	}

	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "data_dir", app.config.DataDir)

	app.initSignalHandler(cancelFunc)

	s := httpapi.NewHTTPServer(app.config.EndpointAddr, app.logger, app.handler)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
