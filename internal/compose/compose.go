// Package compose builds ffmpeg argument lists for the two montage layouts.
// Every function in this package is pure: no I/O, no randomness, identical
// inputs always produce identical argument lists.
package compose

import (
	"errors"
	"fmt"
)

// Static errors for caller contract violations.
var (
	// ErrInvalidMode is returned when the mode is neither split nor corner.
	ErrInvalidMode = errors.New("compose: invalid mode")
	// ErrInvalidPosition is returned for an unknown avatar position.
	ErrInvalidPosition = errors.New("compose: invalid avatar position")
	// ErrInvalidSize is returned when the split size is outside 1..99.
	ErrInvalidSize = errors.New("compose: avatar size must be between 1 and 99")
)

// Mode selects the composition layout.
type Mode string

const (
	// ModeSplit places both videos side by side (or stacked) on one canvas.
	ModeSplit Mode = "split"
	// ModeCorner overlays a scaled-down avatar on top of the second video.
	ModeCorner Mode = "corner"
)

// IsValid returns true if the mode is known.
func (m Mode) IsValid() bool {
	return m == ModeSplit || m == ModeCorner
}

// Position is the avatar placement.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

// IsValid returns true if the position is known.
func (p Position) IsValid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight:
		return true
	}
	return false
}

// Vertical reports whether a split at this position stacks panes top to bottom.
func (p Position) Vertical() bool {
	return p == PositionTop || p == PositionBottom
}

// Defaults applied when a form field is omitted.
const (
	DefaultMode     = ModeSplit
	DefaultPosition = PositionLeft
	DefaultSize     = 50
)

// Request is the set of compositing parameters chosen by the caller.
type Request struct {
	Mode     Mode
	Position Position
	// Size is the avatar share of the canvas in percent. Only used by split mode.
	Size int
}

// Validate checks the request against the builder's domain.
func (r Request) Validate() error {
	if !r.Mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, r.Mode)
	}
	if !r.Position.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, r.Position)
	}
	if r.Mode == ModeSplit && (r.Size < 1 || r.Size > 99) {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, r.Size)
	}
	return nil
}

// Paths holds the scratch files a single run reads and writes.
type Paths struct {
	Avatar string
	Second string
	Output string
}

// Build returns the argument list for the requested mode.
// The ffmpeg binary itself is not part of the list.
func Build(req Request, paths Paths) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Mode == ModeCorner {
		return CornerArgs(paths, req.Position), nil
	}
	return SplitArgs(paths, req.Position, req.Size), nil
}

// encodeArgs are shared by both layouts and tuned for encode speed.
func encodeArgs(output string) []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-r", "25",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", "128k",
		"-shortest",
		output,
	}
}
