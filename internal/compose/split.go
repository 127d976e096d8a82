package compose

import "fmt"

// Output canvas for split mode (portrait).
const (
	CanvasWidth  = 720
	CanvasHeight = 1280
)

// Pane is one region of the split canvas.
type Pane struct {
	Width  int
	Height int
}

// filter scales an input into the pane, keeping aspect ratio and centering
// the result on black padding.
func (p Pane) filter(input, label string) string {
	return fmt.Sprintf(
		"[%s]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2[%s]",
		input, p.Width, p.Height, p.Width, p.Height, label,
	)
}

// SplitPanes returns the avatar and second panes for a split at position
// with the avatar taking size percent of the split axis.
// The two panes always add up to the full canvas along that axis.
func SplitPanes(position Position, size int) (avatar, second Pane) {
	if position.Vertical() {
		h := CanvasHeight * size / 100
		return Pane{Width: CanvasWidth, Height: h}, Pane{Width: CanvasWidth, Height: CanvasHeight - h}
	}
	w := CanvasWidth * size / 100
	return Pane{Width: w, Height: CanvasHeight}, Pane{Width: CanvasWidth - w, Height: CanvasHeight}
}

// SplitArgs builds the split-screen command. Input 0 is the avatar and
// input 1 the second video.
func SplitArgs(paths Paths, position Position, size int) []string {
	avatar, second := SplitPanes(position, size)

	stack := "hstack"
	if position.Vertical() {
		stack = "vstack"
	}

	// The first pane in the stack is the avatar for top/left and the
	// second video for bottom/right. Audio follows the same rule.
	var graph, audio string
	switch position {
	case PositionTop, PositionLeft:
		graph = avatar.filter("0:v", "v0") + ";" + second.filter("1:v", "v1")
		audio = "0:a?"
	default:
		graph = second.filter("1:v", "v0") + ";" + avatar.filter("0:v", "v1")
		audio = "1:a?"
	}
	graph += fmt.Sprintf(";[v0][v1]%s=inputs=2[v]", stack)

	args := []string{
		"-y",
		"-i", paths.Avatar,
		"-i", paths.Second,
		"-filter_complex", graph,
		"-map", "[v]",
		"-map", audio,
	}
	return append(args, encodeArgs(paths.Output)...)
}
