// Package main provides the entry point for the Pro Montage API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/pro-montage-api/internal/bootstrap"
	"github.com/maauso/pro-montage-api/internal/config"
	"github.com/maauso/pro-montage-api/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting Pro Montage API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("ffmpeg_path", cfg.FFmpegPath),
		slog.Int("max_concurrent_jobs", cfg.MaxConcurrentJobs),
		slog.Duration("process_timeout", cfg.ProcessTimeout),
		slog.Duration("cleanup_delay", cfg.CleanupDelay),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	probeFFmpeg(deps, cfg.ProbeTimeout, logger)

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(deps.MontageService, logger,
		server.WithMaxUploadBytes(cfg.MaxUploadBytes()),
		server.WithProbeTimeout(cfg.ProbeTimeout),
	)
	router := server.NewRouter(handlers, logger, server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        deps.Metrics.Handler(),
	})

	// Create HTTP server. Write timeout covers upload, ffmpeg and streaming.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      writeTimeout(cfg.ProcessTimeout),
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		// Files served just before shutdown would otherwise be orphaned
		deps.Cleaner.Flush(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// probeFFmpeg logs whether ffmpeg is usable. The server starts either way.
func probeFFmpeg(deps *bootstrap.Dependencies, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	version, err := deps.MontageService.ToolVersion(ctx)
	if err != nil {
		logger.Warn("ffmpeg not available, processing requests will fail",
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info("ffmpeg available", slog.String("version", version))
}

// writeTimeout returns the response deadline for a given ffmpeg bound.
// Zero leaves responses unbounded, like the ffmpeg run itself.
func writeTimeout(processTimeout time.Duration) time.Duration {
	if processTimeout <= 0 {
		return 0
	}
	return processTimeout + 5*time.Minute
}
