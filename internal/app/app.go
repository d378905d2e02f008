package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/auth"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/database"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/route"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/storage"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/websocket"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  *logger.Logger
	store   repository.Store
	models  *ai.ModelContext
	uploads *storage.UploadStore
	hub     *websocket.Hub
	manager *service.Manager
	metrics *telemetry.Metrics
	server  *http.Server
}

// NewApp builds every service. The caller owns the returned App and must call Run
// or Close.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	log, err := logger.New(logger.Options{Dir: cfg.LogDirectory, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}
	if cfg.Device != "cpu" {
		log.Warning("Device %q is not available, running on cpu", cfg.Device)
	}

	store, err := database.Open(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Close()
		return nil, err
	}

	models, err := ai.NewModelContext(ai.Options{
		CheckpointPath: cfg.CheckpointPath,
		Seed:           cfg.WeightSeed,
		Threads:        cfg.InferenceThreads,
		Logger:         log,
	})
	if err != nil {
		store.Close()
		log.Close()
		return nil, err
	}

	metrics := telemetry.NewMetrics()
	metrics.SetWeightsLoaded(models.Loaded())

	uploads, err := storage.NewUploadStore(cfg, log, metrics)
	if err != nil {
		store.Close()
		log.Close()
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		store.Close()
		log.Close()
		return nil, err
	}

	hub := websocket.NewHub(log, metrics)
	manager := service.NewManager(ai.NewEngine(models), uploads, hub, store, metrics, cfg, log)
	router := route.SetupRoutes(manager, store, issuer, models, metrics, cfg, log)

	return &App{
		config:  cfg,
		logger:  log,
		store:   store,
		models:  models,
		uploads: uploads,
		hub:     hub,
		manager: manager,
		metrics: metrics,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and
// releases every resource.
func (a *App) Run(ctx context.Context) error {
	bg, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background services
	go a.hub.Run(bg)
	go a.uploads.Run(bg)

	fmt.Printf("🚀 Steganography Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Uploads: %s\n", a.uploads.Dir())
	fmt.Printf("🤖 Weights: %s (loaded=%t)\n", a.models.Source(), a.models.Loaded())

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error during shutdown: %v", err)
		}
	}

	cancel()
	return errors.Join(serveErr, a.Close())
}

// Close stops the workers and releases the store and log files.
func (a *App) Close() error {
	a.manager.Stop()
	storeErr := a.store.Close()
	return errors.Join(storeErr, a.logger.Close())
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
