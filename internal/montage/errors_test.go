package montage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Kinds(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name   string
		err    *Error
		kind   error
		detail string
	}{
		{"processing failed", processingFailed("bad input", cause), ErrProcessingFailed, "FFmpeg processing failed: bad input"},
		{"output missing", outputMissing(), ErrOutputMissing, "Output file not created"},
		{"busy", busy(), ErrBusy, "Server busy, retry later"},
		{"internal", internal(cause), ErrInternal, "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.detail, tt.err.Error())
		})
	}

	assert.ErrorIs(t, internal(cause), cause)
	assert.NotErrorIs(t, outputMissing(), ErrInternal)
	assert.NotErrorIs(t, busy(), ErrInternal)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "processing_failed", resultLabel(processingFailed("x", nil)))
	assert.Equal(t, "output_missing", resultLabel(outputMissing()))
	assert.Equal(t, "busy", resultLabel(busy()))
	assert.Equal(t, "internal", resultLabel(internal(errors.New("x"))))
}
