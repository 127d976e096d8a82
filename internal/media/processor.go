// Package media wraps the external ffmpeg and ffprobe binaries.
package media

import "context"

// Compositor runs the external video tool.
// Implementations must not interpret the arguments; they are built by the
// compose package and passed through unchanged.
type Compositor interface {
	// Run executes the tool with args and blocks until it exits.
	// A non-zero exit is reported as *FFmpegError carrying the tool's stderr.
	Run(ctx context.Context, args []string) error

	// Version returns the tool's version token, or an error wrapping
	// ErrToolUnavailable when the tool cannot be executed.
	Version(ctx context.Context) (string, error)
}

// Prober reads metadata from finished media files.
type Prober interface {
	// Duration returns the duration in seconds of the file at path.
	Duration(ctx context.Context, path string) (float64, error)
}
