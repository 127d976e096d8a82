// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DotEnvFile is read at startup when present. Variables already set in the
// process environment take precedence over its entries.
const DotEnvFile = ".env"

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8001" json:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	MaxUploadMB    int64    `env:"MAX_UPLOAD_MB, default=1024" json:"max_upload_mb" validate:"min=1"`

	// Scratch directory. Empty means <os temp dir>/pro_montage.
	TempDir string `env:"TEMP_DIR" json:"temp_dir"`

	// External tool settings
	FFmpegPath     string        `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path" validate:"required"`
	FFprobePath    string        `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path" validate:"required"`
	ProbeTimeout   time.Duration `env:"PROBE_TIMEOUT, default=5s" json:"probe_timeout" validate:"gt=0"`
	ProcessTimeout time.Duration `env:"PROCESS_TIMEOUT, default=10m" json:"process_timeout" validate:"gte=0"`

	// Processing settings
	MaxConcurrentJobs int           `env:"MAX_CONCURRENT_JOBS, default=0" json:"max_concurrent_jobs" validate:"gte=0"`
	CleanupDelay      time.Duration `env:"CLEANUP_DELAY, default=5s" json:"cleanup_delay" validate:"gte=0"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json TEXT JSON"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`                                        // "debug", "info", "warn", "error"
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	lookuper, err := dotEnvLookuper(DotEnvFile)
	if err != nil {
		return nil, err
	}
	return load(context.Background(), lookuper)
}

// dotEnvLookuper layers the process environment over the entries of path.
// A missing file is not an error.
func dotEnvLookuper(path string) (envconfig.Lookuper, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envconfig.OsLookuper(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return envconfig.MultiLookuper(envconfig.OsLookuper(), envconfig.MapLookuper(values)), nil
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges on the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// MaxUploadBytes returns the multipart body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, FFmpegPath: %s, MaxConcurrentJobs: %d, ProcessTimeout: %s, CleanupDelay: %s, MaxUploadMB: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.FFmpegPath,
		c.MaxConcurrentJobs,
		c.ProcessTimeout,
		c.CleanupDelay,
		c.MaxUploadMB,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
