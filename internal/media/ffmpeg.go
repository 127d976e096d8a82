package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// Static errors for media operations.
var (
	// ErrToolUnavailable is returned when the ffmpeg binary cannot be executed.
	ErrToolUnavailable = errors.New("ffmpeg is not available")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoArgs is returned when Run is called without arguments.
	ErrNoArgs = errors.New("no ffmpeg arguments provided")
)

// Compile-time checks that FFmpegProcessor implements the ports.
var (
	_ Compositor = (*FFmpegProcessor)(nil)
	_ Prober     = (*FFmpegProcessor)(nil)
)

// FFmpegProcessor implements Compositor and Prober using the ffmpeg CLI.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// ProcessorOption configures an FFmpegProcessor.
type ProcessorOption func(*FFmpegProcessor)

// WithFFprobePath overrides the ffprobe binary used by Duration.
func WithFFprobePath(path string) ProcessorOption {
	return func(p *FFmpegProcessor) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegProcessor(ffmpegPath string, opts ...ProcessorOption) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	p := &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: "ffprobe"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the ffmpeg binary this processor invokes.
func (p *FFmpegProcessor) Path() string {
	return p.ffmpegPath
}

// CommandLine renders args as the shell-like command line that Run executes.
// Only used for logging.
func (p *FFmpegProcessor) CommandLine(args []string) string {
	return p.ffmpegPath + " " + strings.Join(args, " ")
}

// Run executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrNoArgs
	}

	// #nosec G204 - ffmpegPath is set by the application, args are built by compose
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// Version runs "ffmpeg -version" and returns the version token from the
// first line, e.g. "6.1.1" for "ffmpeg version 6.1.1 Copyright ...".
func (p *FFmpegProcessor) Version(ctx context.Context) (string, error) {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, "-version")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}

	return parseVersion(stdout.String()), nil
}

// parseVersion extracts the third whitespace-separated field of the output.
func parseVersion(out string) string {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return "unknown"
	}
	return fields[2]
}

// Duration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata.
func (p *FFmpegProcessor) Duration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code, or -1 if it is not known.
func (e *FFmpegError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Excerpt returns at most n characters of stderr (n <= 0 returns all of it).
// ffmpeg prints its banner first and the actual failure last, so the tail
// is kept.
func (e *FFmpegError) Excerpt(n int) string {
	s := strings.TrimSpace(e.Stderr)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
