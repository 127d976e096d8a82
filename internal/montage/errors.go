package montage

import "errors"

// Error kinds returned by Service.Process. Match them with errors.Is.
var (
	// ErrProcessingFailed means ffmpeg exited non-zero or timed out.
	ErrProcessingFailed = errors.New("montage: processing failed")
	// ErrOutputMissing means ffmpeg exited cleanly but wrote no output.
	ErrOutputMissing = errors.New("montage: output file not created")
	// ErrBusy means every ffmpeg slot is taken. Requests are rejected, not queued.
	ErrBusy = errors.New("montage: too many concurrent jobs")
	// ErrInternal covers every other failure (upload I/O, bad parameters, cancellation).
	ErrInternal = errors.New("montage: internal error")
)

// DetailLimit caps the ffmpeg stderr excerpt carried by ErrProcessingFailed.
const DetailLimit = 500

// Error is a failed montage. Detail is safe to return to the client.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func processingFailed(detail string, err error) *Error {
	return &Error{Kind: ErrProcessingFailed, Detail: "FFmpeg processing failed: " + detail, Err: err}
}

func outputMissing() *Error {
	return &Error{Kind: ErrOutputMissing, Detail: "Output file not created"}
}

func busy() *Error {
	return &Error{Kind: ErrBusy, Detail: "Server busy, retry later"}
}

func internal(err error) *Error {
	return &Error{Kind: ErrInternal, Detail: err.Error(), Err: err}
}

// resultLabel names the outcome of a Process call for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrProcessingFailed):
		return "processing_failed"
	case errors.Is(err, ErrOutputMissing):
		return "output_missing"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}
