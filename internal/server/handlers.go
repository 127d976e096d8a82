package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/pro-montage-api/internal/compose"
	"github.com/maauso/pro-montage-api/internal/montage"
)

// Multipart form field names.
const (
	fieldAvatarVideo    = "avatar_video"
	fieldSecondVideo    = "second_video"
	fieldMode           = "mode"
	fieldAvatarPosition = "avatar_position"
	fieldAvatarSize     = "avatar_size"
)

const (
	// defaultMaxUploadBytes bounds the whole multipart body.
	defaultMaxUploadBytes = 1 << 30
	// multipartMemory is kept in RAM; larger parts spill to temp files.
	multipartMemory = 32 << 20
	// defaultProbeTimeout bounds the ffmpeg -version probe in /health.
	defaultProbeTimeout = 5 * time.Second
	// retryAfterSeconds is sent with 503 responses.
	retryAfterSeconds = "5"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *montage.Service
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
	probeTimeout   time.Duration
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes limits the size of a POST /process body.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithProbeTimeout bounds the ffmpeg probe run by the health check.
func WithProbeTimeout(d time.Duration) HandlerOption {
	return func(h *Handlers) {
		if d > 0 {
			h.probeTimeout = d
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *montage.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
		probeTimeout:   defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests. It always answers 200.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.probeTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "ok",
		ScratchDir: h.service.ScratchDir(),
	}

	version, err := h.service.ToolVersion(ctx)
	if err != nil {
		h.logger.Warn("ffmpeg probe failed",
			slog.String("error", err.Error()),
		)
	} else {
		resp.FFmpegAvailable = true
		resp.FFmpegVersion = version
	}

	writeJSON(w, http.StatusOK, resp)
}

// Process handles POST /process requests.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "UPLOAD_TOO_LARGE")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "UPLOAD_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form, err := bindProcessForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	// Validate request
	if err := h.validator.Struct(form); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	avatar, err := openFormFile(r, fieldAvatarVideo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "MISSING_FILE")
		return
	}
	defer func() { _ = avatar.Close() }()

	second, err := openFormFile(r, fieldSecondVideo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "MISSING_FILE")
		return
	}
	defer func() { _ = second.Close() }()

	out, err := h.service.Process(r.Context(), montage.Input{
		Avatar:  avatar,
		Second:  second,
		Request: form.Request(),
	})
	if err != nil {
		if errors.Is(err, montage.ErrBusy) {
			w.Header().Set("Retry-After", retryAfterSeconds)
			writeError(w, http.StatusServiceUnavailable, err.Error(), "BUSY")
			return
		}
		h.logger.Error("processing error",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error(), errorCode(err))
		return
	}
	// Scratch files are deleted after the delay, whatever happens below
	defer h.service.Release(out)

	rc, err := h.service.Open(r.Context(), out)
	if err != nil {
		h.logger.Error("failed to open output video",
			slog.String("path", out.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", out.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.Header().Set("Content-Length", strconv.FormatInt(out.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream output video",
			slog.String("error", err.Error()),
		)
	}
}

// bindProcessForm reads the text fields, applying defaults for omitted ones.
func bindProcessForm(r *http.Request) (ProcessForm, error) {
	form := ProcessForm{
		Mode:           string(compose.DefaultMode),
		AvatarPosition: string(compose.DefaultPosition),
		AvatarSize:     compose.DefaultSize,
	}
	if v := r.FormValue(fieldMode); v != "" {
		form.Mode = v
	}
	if v := r.FormValue(fieldAvatarPosition); v != "" {
		form.AvatarPosition = v
	}
	if v := r.FormValue(fieldAvatarSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return form, errors.New("avatar_size must be an integer")
		}
		form.AvatarSize = size
	}
	return form, nil
}

func openFormFile(r *http.Request, field string) (multipart.File, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, errors.New(field + " is required")
	}
	return f, nil
}

// errorCode maps montage error kinds to response codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, montage.ErrProcessingFailed):
		return "PROCESSING_FAILED"
	case errors.Is(err, montage.ErrOutputMissing):
		return "OUTPUT_MISSING"
	default:
		return "INTERNAL_ERROR"
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, detail, code string) {
	writeJSON(w, status, ErrorResponse{
		Detail: detail,
		Code:   code,
	})
}
