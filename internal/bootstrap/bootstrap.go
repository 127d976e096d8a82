// Package bootstrap provides dependency initialization for the Pro Montage API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/pro-montage-api/internal/cleanup"
	"github.com/maauso/pro-montage-api/internal/config"
	"github.com/maauso/pro-montage-api/internal/media"
	"github.com/maauso/pro-montage-api/internal/metrics"
	"github.com/maauso/pro-montage-api/internal/montage"
	"github.com/maauso/pro-montage-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	MontageService *montage.Service
	// Cleaner owns the pending deferred deletions; flush it on shutdown.
	Cleaner *cleanup.Scheduler
	Metrics *metrics.Metrics
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize scratch storage
	store, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("scratch storage configured",
		slog.String("temp_dir", store.TempDir()),
	)

	// Initialize ffmpeg runner
	processor := media.NewFFmpegProcessor(cfg.FFmpegPath, media.WithFFprobePath(cfg.FFprobePath))

	// Deferred deletion of served files
	cleaner := cleanup.NewScheduler(store.CleanupTemp, cfg.CleanupDelay, logger)

	m := metrics.New()

	svc := montage.NewService(
		processor,
		store,
		cleaner,
		logger,
		montage.WithMaxConcurrent(cfg.MaxConcurrentJobs),
		montage.WithTimeout(cfg.ProcessTimeout),
		montage.WithProber(processor),
		montage.WithRecorder(m),
	)

	return &Dependencies{
		MontageService: svc,
		Cleaner:        cleaner,
		Metrics:        m,
	}, nil
}
