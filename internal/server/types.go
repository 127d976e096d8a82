// Package server provides the HTTP server for the Pro Montage API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "github.com/maauso/pro-montage-api/internal/compose"

// ProcessForm holds the non-file fields of a POST /process request.
type ProcessForm struct {
	// Mode is the composition layout.
	Mode string `validate:"oneof=split corner"`
	// AvatarPosition is where the avatar goes.
	AvatarPosition string `validate:"oneof=top bottom left right"`
	// AvatarSize is the avatar share of the canvas in percent (split only).
	AvatarSize int `validate:"min=1,max=99"`
}

// Request converts the validated form into builder parameters.
func (f ProcessForm) Request() compose.Request {
	return compose.Request{
		Mode:     compose.Mode(f.Mode),
		Position: compose.Position(f.AvatarPosition),
		Size:     f.AvatarSize,
	}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Detail is the human-readable error message.
	Detail string `json:"detail"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is always "ok"; the endpoint never fails.
	Status string `json:"status"`
	// FFmpegAvailable reports whether ffmpeg -version succeeded.
	FFmpegAvailable bool `json:"ffmpeg_available"`
	// FFmpegVersion is the detected version, when available.
	FFmpegVersion string `json:"ffmpeg_version,omitempty"`
	// ScratchDir is the directory holding per-request files.
	ScratchDir string `json:"scratch_dir"`
}
