package compose

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPaths = Paths{
	Avatar: "/scratch/avatar_aa.mp4",
	Second: "/scratch/second_bb.mp4",
	Output: "/scratch/output_cc.mp4",
}

var allPositions = []Position{PositionTop, PositionBottom, PositionLeft, PositionRight}

// argValues returns the value following each occurrence of flag, in order.
func argValues(args []string, flag string) []string {
	var vals []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			vals = append(vals, args[i+1])
		}
	}
	return vals
}

func TestSplitPanes_SumToCanvas(t *testing.T) {
	for _, pos := range allPositions {
		for size := 1; size <= 99; size++ {
			avatar, second := SplitPanes(pos, size)
			if pos.Vertical() {
				assert.Equal(t, CanvasHeight, avatar.Height+second.Height, "pos=%s size=%d", pos, size)
				assert.Equal(t, CanvasWidth, avatar.Width)
				assert.Equal(t, CanvasWidth, second.Width)
			} else {
				assert.Equal(t, CanvasWidth, avatar.Width+second.Width, "pos=%s size=%d", pos, size)
				assert.Equal(t, CanvasHeight, avatar.Height)
				assert.Equal(t, CanvasHeight, second.Height)
			}
		}
	}
}

func TestSplitPanes_Floors(t *testing.T) {
	avatar, second := SplitPanes(PositionTop, 33)
	assert.Equal(t, 422, avatar.Height) // 1280*33/100 = 422.4
	assert.Equal(t, 858, second.Height)

	avatar, second = SplitPanes(PositionLeft, 33)
	assert.Equal(t, 237, avatar.Width) // 720*33/100 = 237.6
	assert.Equal(t, 483, second.Width)
}

func TestSplitArgs_Left50(t *testing.T) {
	args := SplitArgs(testPaths, PositionLeft, 50)

	want := []string{
		"-y",
		"-i", testPaths.Avatar,
		"-i", testPaths.Second,
		"-filter_complex",
		"[0:v]scale=360:1280:force_original_aspect_ratio=decrease,pad=360:1280:(ow-iw)/2:(oh-ih)/2[v0];" +
			"[1:v]scale=360:1280:force_original_aspect_ratio=decrease,pad=360:1280:(ow-iw)/2:(oh-ih)/2[v1];" +
			"[v0][v1]hstack=inputs=2[v]",
		"-map", "[v]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-r", "25",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", "128k",
		"-shortest",
		testPaths.Output,
	}
	assert.Equal(t, want, args)
}

func TestSplitArgs_BottomOrdersSecondFirst(t *testing.T) {
	args := SplitArgs(testPaths, PositionBottom, 25)
	graph := argValues(args, "-filter_complex")[0]

	assert.Equal(t,
		"[1:v]scale=720:960:force_original_aspect_ratio=decrease,pad=720:960:(ow-iw)/2:(oh-ih)/2[v0];"+
			"[0:v]scale=720:320:force_original_aspect_ratio=decrease,pad=720:320:(ow-iw)/2:(oh-ih)/2[v1];"+
			"[v0][v1]vstack=inputs=2[v]",
		graph,
	)
}

func TestSplitArgs_StackDirection(t *testing.T) {
	tests := map[Position]string{
		PositionTop:    "vstack=inputs=2",
		PositionBottom: "vstack=inputs=2",
		PositionLeft:   "hstack=inputs=2",
		PositionRight:  "hstack=inputs=2",
	}
	for pos, stack := range tests {
		t.Run(string(pos), func(t *testing.T) {
			graph := argValues(SplitArgs(testPaths, pos, 40), "-filter_complex")[0]
			assert.Contains(t, graph, stack)
		})
	}
}

func TestSplitArgs_AudioSource(t *testing.T) {
	tests := map[Position]string{
		PositionTop:    "0:a?", // avatar
		PositionBottom: "1:a?", // second
		PositionLeft:   "0:a?",
		PositionRight:  "1:a?",
	}
	for pos, audio := range tests {
		t.Run(string(pos), func(t *testing.T) {
			maps := argValues(SplitArgs(testPaths, pos, 50), "-map")
			require.Len(t, maps, 2)
			assert.Equal(t, "[v]", maps[0])
			assert.Equal(t, audio, maps[1])
		})
	}
}

func TestCornerArgs(t *testing.T) {
	args := CornerArgs(testPaths, PositionTop)

	want := []string{
		"-y",
		"-i", testPaths.Second,
		"-i", testPaths.Avatar,
		"-filter_complex", "[1:v]scale=iw*0.3:ih*0.3[ovr];[0:v][ovr]overlay=W-w-10:10[v]",
		"-map", "[v]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-r", "25",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", "128k",
		"-shortest",
		testPaths.Output,
	}
	assert.Equal(t, want, args)
}

func TestCornerOverlay(t *testing.T) {
	assert.Equal(t, "W-w-10:10", CornerOverlay(PositionTop))
	assert.Equal(t, "W-w-10:H-h-10", CornerOverlay(PositionBottom))
	assert.Equal(t, "10:H-h-10", CornerOverlay(PositionLeft))
	assert.Equal(t, "W-w-10:H-h-10", CornerOverlay(PositionRight))
	assert.Equal(t, "W-w-10:H-h-10", CornerOverlay(Position("middle")))
}

func TestCornerArgs_BottomAndRightCollide(t *testing.T) {
	assert.Equal(t, CornerArgs(testPaths, PositionBottom), CornerArgs(testPaths, PositionRight))
}

func TestCornerArgs_ScaleIsSelfRelative(t *testing.T) {
	for _, pos := range allPositions {
		graph := argValues(CornerArgs(testPaths, pos), "-filter_complex")[0]
		assert.True(t, strings.HasPrefix(graph, "[1:v]scale=iw*0.3:ih*0.3[ovr];"), graph)
	}
}

func TestBuild_SingleOutputLabelAndMaps(t *testing.T) {
	for _, mode := range []Mode{ModeSplit, ModeCorner} {
		for _, pos := range allPositions {
			for _, size := range []int{1, 50, 99} {
				name := fmt.Sprintf("%s/%s/%d", mode, pos, size)
				args, err := Build(Request{Mode: mode, Position: pos, Size: size}, testPaths)
				require.NoError(t, err, name)

				graphs := argValues(args, "-filter_complex")
				require.Len(t, graphs, 1, name)
				assert.Equal(t, 1, strings.Count(graphs[0], "[v]"), name)

				maps := argValues(args, "-map")
				require.Len(t, maps, 2, name)
				assert.Equal(t, "[v]", maps[0], name)
				assert.True(t, strings.HasSuffix(maps[1], ":a?"), name)

				assert.Equal(t, "-y", args[0], name)
				assert.Equal(t, testPaths.Output, args[len(args)-1], name)
			}
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	req := Request{Mode: ModeSplit, Position: PositionRight, Size: 37}
	first, err := Build(req, testPaths)
	require.NoError(t, err)
	second, err := Build(req, testPaths)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_CornerIgnoresSize(t *testing.T) {
	args, err := Build(Request{Mode: ModeCorner, Position: PositionLeft, Size: 0}, testPaths)
	require.NoError(t, err)
	assert.Equal(t, CornerArgs(testPaths, PositionLeft), args)
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown mode", Request{Mode: "grid", Position: PositionLeft, Size: 50}, ErrInvalidMode},
		{"unknown position", Request{Mode: ModeSplit, Position: "center", Size: 50}, ErrInvalidPosition},
		{"size zero", Request{Mode: ModeSplit, Position: PositionTop, Size: 0}, ErrInvalidSize},
		{"size hundred", Request{Mode: ModeSplit, Position: PositionTop, Size: 100}, ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.req, testPaths)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
