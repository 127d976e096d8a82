package compose

import "fmt"

// CornerScale is the avatar scale relative to its own native size.
const CornerScale = 0.3

// cornerOverlays maps a position to an ffmpeg overlay expression evaluated
// against the background (W, H) and the scaled avatar (w, h).
// bottom and right intentionally resolve to the same bottom-right corner.
var cornerOverlays = map[Position]string{
	PositionTop:    "W-w-10:10",
	PositionBottom: "W-w-10:H-h-10",
	PositionLeft:   "10:H-h-10",
	PositionRight:  "W-w-10:H-h-10",
}

// CornerOverlay returns the overlay offset expression for position.
// Unknown positions fall back to bottom-right.
func CornerOverlay(position Position) string {
	if expr, ok := cornerOverlays[position]; ok {
		return expr
	}
	return cornerOverlays[PositionBottom]
}

// CornerArgs builds the picture-in-picture command. Input 0 is the second
// video (background, also the audio source) and input 1 the avatar.
func CornerArgs(paths Paths, position Position) []string {
	graph := fmt.Sprintf(
		"[1:v]scale=iw*%[1]g:ih*%[1]g[ovr];[0:v][ovr]overlay=%[2]s[v]",
		CornerScale, CornerOverlay(position),
	)

	args := []string{
		"-y",
		"-i", paths.Second,
		"-i", paths.Avatar,
		"-filter_complex", graph,
		"-map", "[v]",
		"-map", "0:a?",
	}
	return append(args, encodeArgs(paths.Output)...)
}
