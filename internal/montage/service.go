// Package montage composes two uploaded videos into one by running ffmpeg
// over scratch copies of the uploads.
package montage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/maauso/pro-montage-api/internal/compose"
	"github.com/maauso/pro-montage-api/internal/media"
	"github.com/maauso/pro-montage-api/internal/storage"
)

// Fixed response metadata for every successful montage.
const (
	MediaType = "video/mp4"
	Filename  = "pro_montage_result.mp4"
)

// Input contains one montage request.
type Input struct {
	// Avatar is the avatar video payload.
	Avatar io.Reader
	// Second is the second video payload.
	Second io.Reader
	// Request holds the compositing parameters.
	Request compose.Request
}

// Output is a finished montage waiting to be streamed.
// Release must be called once the response has been written.
type Output struct {
	// Path is the composed file in the scratch directory.
	Path string
	// MediaType is the response content type.
	MediaType string
	// Filename is the suggested download name.
	Filename string
	// Size is the output size in bytes.
	Size int64

	scratch []string
}

// Cleaner deletes scratch files some time after a response.
type Cleaner interface {
	Schedule(paths []string)
}

// Recorder receives processing metrics.
type Recorder interface {
	// CountResult records the outcome of one Process call.
	CountResult(mode, result string)
	// ObserveRun records how long one ffmpeg run took.
	ObserveRun(mode string, d time.Duration)
	// TrackInFlight marks an ffmpeg run as started and returns its completion func.
	TrackInFlight() func()
}

type nopRecorder struct{}

func (nopRecorder) CountResult(string, string)       {}
func (nopRecorder) ObserveRun(string, time.Duration) {}
func (nopRecorder) TrackInFlight() func()            { return func() {} }

// Service runs the upload → ffmpeg → output workflow.
// Each call to Process owns three unique scratch files; calls share no
// other state apart from the optional concurrency limit.
type Service struct {
	compositor media.Compositor
	prober     media.Prober
	store      storage.Storage
	cleaner    Cleaner
	recorder   Recorder
	logger     *slog.Logger

	sem     *semaphore.Weighted
	timeout time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxConcurrent bounds simultaneous requests. Requests beyond the bound
// fail at once with ErrBusy. n <= 0 means unbounded.
func WithMaxConcurrent(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		} else {
			s.sem = nil
		}
	}
}

// WithTimeout bounds a single ffmpeg run. d <= 0 disables the bound.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = d
	}
}

// WithProber enables logging the duration of each output.
func WithProber(p media.Prober) ServiceOption {
	return func(s *Service) {
		s.prober = p
	}
}

// WithRecorder reports processing metrics to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a new Service.
func NewService(compositor media.Compositor, store storage.Storage, cleaner Cleaner, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		compositor: compositor,
		store:      store,
		cleaner:    cleaner,
		recorder:   nopRecorder{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScratchDir returns the directory holding per-request files.
func (s *Service) ScratchDir() string {
	return s.store.TempDir()
}

// ToolVersion reports the ffmpeg version, or an error if it cannot run.
func (s *Service) ToolVersion(ctx context.Context) (string, error) {
	return s.compositor.Version(ctx)
}

// Process saves both uploads, runs ffmpeg and returns the composed file.
// On any error every scratch file of the request has already been removed.
// On success the caller streams Output.Path and then calls Release.
func (s *Service) Process(ctx context.Context, in Input) (*Output, error) {
	req := in.Request
	paths := compose.Paths{
		Avatar: s.store.NewPath(storage.RoleAvatar),
		Second: s.store.NewPath(storage.RoleSecond),
		Output: s.store.NewPath(storage.RoleOutput),
	}
	scratch := []string{paths.Avatar, paths.Second, paths.Output}

	logger := s.logger.With(
		slog.String("mode", string(req.Mode)),
		slog.String("position", string(req.Position)),
		slog.Int("size", req.Size),
	)
	logger.Info("starting video processing")

	out, err := s.process(ctx, logger, in, paths)
	s.recorder.CountResult(string(req.Mode), resultLabel(err))
	if err != nil {
		s.discard(logger, scratch)
		return nil, err
	}
	out.scratch = scratch
	return out, nil
}

func (s *Service) process(ctx context.Context, logger *slog.Logger, in Input, paths compose.Paths) (*Output, error) {
	if s.sem != nil {
		if !s.sem.TryAcquire(1) {
			logger.Warn("rejecting request, all ffmpeg slots busy")
			return nil, busy()
		}
		defer s.sem.Release(1)
	}

	if err := s.saveUploads(ctx, logger, in, paths); err != nil {
		return nil, internal(err)
	}

	args, err := compose.Build(in.Request, paths)
	if err != nil {
		return nil, internal(err)
	}

	if err := s.run(ctx, logger, string(in.Request.Mode), args); err != nil {
		return nil, err
	}

	info, err := os.Stat(paths.Output)
	if err != nil {
		return nil, outputMissing()
	}

	attrs := []any{slog.Int64("output_bytes", info.Size())}
	if s.prober != nil {
		if d, err := s.prober.Duration(ctx, paths.Output); err == nil {
			attrs = append(attrs, slog.Float64("duration_sec", d))
		} else {
			logger.Debug("probe output duration failed", slog.String("error", err.Error()))
		}
	}
	logger.Info("video processed successfully", attrs...)

	return &Output{
		Path:      paths.Output,
		MediaType: MediaType,
		Filename:  Filename,
		Size:      info.Size(),
	}, nil
}

// saveUploads writes both payloads in full; ffmpeg needs seekable files.
func (s *Service) saveUploads(ctx context.Context, logger *slog.Logger, in Input, paths compose.Paths) error {
	if in.Avatar == nil || in.Second == nil {
		return errors.New("both avatar and second video are required")
	}

	var avatarBytes, secondBytes int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.SaveTemp(gctx, paths.Avatar, in.Avatar)
		if err != nil {
			return fmt.Errorf("save avatar video: %w", err)
		}
		avatarBytes = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.SaveTemp(gctx, paths.Second, in.Second)
		if err != nil {
			return fmt.Errorf("save second video: %w", err)
		}
		secondBytes = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("files saved",
		slog.Int64("avatar_bytes", avatarBytes),
		slog.String("avatar_type", sniff(paths.Avatar)),
		slog.Int64("second_bytes", secondBytes),
		slog.String("second_type", sniff(paths.Second)),
	)
	return nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, mode string, args []string) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Debug("ffmpeg command", slog.String("args", strings.Join(args, " ")))

	done := s.recorder.TrackInFlight()
	start := time.Now()
	err := s.compositor.Run(runCtx, args)
	s.recorder.ObserveRun(mode, time.Since(start))
	done()
	if err == nil {
		return nil
	}

	var ffErr *media.FFmpegError
	switch {
	case errors.As(err, &ffErr):
		logger.Error("ffmpeg error",
			slog.Int("exit_code", ffErr.ExitCode()),
			slog.String("stderr", ffErr.Stderr),
		)
		detail := ffErr.Excerpt(DetailLimit)
		if detail == "" && ffErr.Err != nil {
			detail = ffErr.Err.Error()
		}
		return processingFailed(detail, err)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		logger.Error("ffmpeg timed out", slog.Duration("timeout", s.timeout))
		return processingFailed(fmt.Sprintf("timed out after %s", s.timeout), err)
	default:
		return internal(err)
	}
}

// Release schedules deletion of the request's scratch files.
func (s *Service) Release(out *Output) {
	if out == nil {
		return
	}
	s.cleaner.Schedule(out.scratch)
}

// Open returns a reader over the composed file.
func (s *Service) Open(ctx context.Context, out *Output) (io.ReadCloser, error) {
	return s.store.LoadTemp(ctx, out.Path)
}

// discard removes scratch files synchronously after a failure. The request
// context may already be done, so a fresh one is used.
func (s *Service) discard(logger *slog.Logger, scratch []string) {
	if err := s.store.CleanupTemp(context.Background(), scratch); err != nil {
		logger.Warn("cleanup after failure", slog.String("error", err.Error()))
	}
}

// sniff returns the detected MIME type of a saved upload, for logging.
func sniff(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "unknown"
	}
	return m.String()
}
