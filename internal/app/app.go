package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clipthread/internal/api"
	"clipthread/internal/auth"
	"clipthread/internal/config"
	"clipthread/internal/database"
	"clipthread/internal/drafting"
	"clipthread/internal/queue"
	"clipthread/internal/repository"
	"clipthread/internal/research"
	"clipthread/internal/transcription/adapters"
	"clipthread/internal/workflow"
	"clipthread/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// SwappableDrafter lets a config reload replace the drafting pipeline while
// tasks keep running against whichever drafter they started with.
type SwappableDrafter struct {
	current atomic.Pointer[drafting.Drafter]
}

func (s *SwappableDrafter) Store(d *drafting.Drafter) { s.current.Store(d) }

func (s *SwappableDrafter) Draft(ctx context.Context, report drafting.ResearchReport, transcription string) ([]string, error) {
	d := s.current.Load()
	if d == nil {
		return nil, errors.New("drafter not configured")
	}
	return d.Draft(ctx, report, transcription)
}

// App is the running server with everything it owns.
type App struct {
	cfg      *config.Config
	db       *gorm.DB
	queue    *queue.Queue
	backend  drafting.Backend
	drafter  *SwappableDrafter
	settings *workflow.Settings
	server   *http.Server
}

// New builds the application from cfg without starting anything.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	backend, err := drafting.NewBackend(ctx, cfg.BackendOptions())
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to create drafting backend: %w", err)
	}
	d, err := drafting.NewDrafter(backend, cfg.DraftingOptions())
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	drafter := &SwappableDrafter{}
	drafter.Store(d)

	videos := repository.NewVideoRepository(db)
	worker := adapters.NewWorkerAdapter(cfg.Transcriber.URL, cfg.WorkerOptions())
	settings := workflow.NewSettings(repository.NewSettingsRepository(db), worker)
	if err := settings.Load(ctx); err != nil {
		logger.Error("Failed to load persisted settings", "error", err)
	}

	tasks := queue.New(cfg.Queue.Workers, cfg.Queue.Size)
	processor := workflow.NewProcessor(videos, worker, research.NewResearcher(cfg.ResearchOptions()), drafter, tasks)

	var authService *auth.Service
	if cfg.Auth.Enabled() {
		authService = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.Username, cfg.Auth.PasswordHash, cfg.Auth.TokenTTL)
	} else {
		logger.Warn("API authentication is disabled, set auth.jwt_secret to enable it")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRoutes(api.NewHandler(videos, processor, settings, authService))

	return &App{
		cfg:      cfg,
		db:       db,
		queue:    tasks,
		backend:  backend,
		drafter:  drafter,
		settings: settings,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Reload applies the settings that can change without a restart.
func (a *App) Reload(cfg *config.Config) {
	logger.SetLevel(cfg.Log.Level)
	d, err := drafting.NewDrafter(a.backend, cfg.DraftingOptions())
	if err != nil {
		logger.Warn("Keeping previous drafting settings", "error", err)
		return
	}
	a.drafter.Store(d)
	logger.Info("Drafting settings reloaded",
		"max_chunk_size", cfg.Drafting.MaxChunkSize, "chunk_overlap", cfg.Drafting.ChunkOverlap)
}

// Run serves until ctx is cancelled, then drains the task queue and closes
// the database.
func (a *App) Run(ctx context.Context) error {
	// Workers outlive ctx; only Stop cancels them, after the drain deadline.
	a.queue.Start(context.WithoutCancel(ctx))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", a.server.Addr, "transcriber_url", a.settings.TranscriberURL())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := a.queue.Stop(shutdownCtx); err != nil {
		logger.Warn("Task queue did not drain", "error", err)
	}
	if err := database.Close(a.db); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
	return serveErr
}
