// Package storage manages the scratch directory that holds per-request
// uploads and ffmpeg output. It defines the Storage interface (port) and a
// local disk implementation.
package storage

import (
	"context"
	"io"
)

// Role prefixes for scratch files.
const (
	RoleAvatar = "avatar"
	RoleSecond = "second"
	RoleOutput = "output"
)

// Storage defines the interface for transient scratch files.
// Nothing written through it is expected to outlive a single request.
type Storage interface {
	// TempDir returns the scratch directory.
	TempDir() string

	// NewPath returns a fresh, collision-free path for role without
	// creating the file.
	NewPath(role string) string

	// SaveTemp writes data completely to path and returns the number of
	// bytes written. A partially written file is removed on failure.
	SaveTemp(ctx context.Context, path string, data io.Reader) (int64, error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether path is present in the scratch directory.
	Exists(path string) bool

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error
}
