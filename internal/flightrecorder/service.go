// Package flightrecorder keeps a rolling in-memory execution trace and writes it to disk when a tool call is
// slow, so the moments leading up to the slowdown can be inspected with go tool trace.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/myrjola/liftcoach/internal/errors"
)

const (
	defaultMinAge   = time.Minute
	defaultMaxBytes = 16 * 1024 * 1024
	// defaultCooldown is the minimum time between two captures.
	defaultCooldown = 10 * time.Minute
)

// ErrInvalidConfig is returned by New for a missing logger or traces directory.
var ErrInvalidConfig = errors.NewSentinel("invalid flight recorder config")

// Config configures the flight recorder. Zero durations and sizes use the defaults.
type Config struct {
	Logger          *slog.Logger
	TracesDirectory string
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service owns the flight recorder and rate limits captures.
type Service struct {
	logger          *slog.Logger
	recorder        *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	now             func() time.Time
	// lastCapture is the Unix nanosecond timestamp of the last capture, zero before the first.
	lastCapture atomic.Int64
}

// New creates the traces directory if needed and configures the recorder. Call Start to begin recording.
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ErrInvalidConfig)
	}
	if cfg.TracesDirectory == "" {
		return nil, fmt.Errorf("%w: traces directory is required", ErrInvalidConfig)
	}
	if err := os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only.
		return nil, fmt.Errorf("create traces directory: %w", err)
	}

	s := &Service{
		logger:          cfg.Logger,
		recorder:        nil,
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        orDefault(cfg.Cooldown, defaultCooldown),
		now:             cfg.Now,
		lastCapture:     atomic.Int64{},
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.recorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   orDefault(cfg.MinAge, defaultMinAge),
		MaxBytes: orDefault(cfg.MaxBytes, defaultMaxBytes),
	})
	return s, nil
}

// orDefault returns v unless it is zero.
func orDefault[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

// Start begins recording.
func (s *Service) Start(ctx context.Context) error {
	if err := s.recorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("traces_directory", s.tracesDirectory),
		slog.Duration("cooldown", s.cooldown))
	return nil
}

// Stop ends recording.
func (s *Service) Stop(ctx context.Context) {
	s.recorder.Stop()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// CaptureSlowCall writes the recorded trace to slow-<name>-<timestamp>.trace and returns the file path. Calls
// within the cooldown of the previous capture are skipped and return an empty path.
func (s *Service) CaptureSlowCall(ctx context.Context, name string, elapsed time.Duration) string {
	now := s.now()
	last := s.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < s.cooldown {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown",
			slog.String("call", name),
			slog.Time("last_capture", time.Unix(0, last)))
		return ""
	}
	if !s.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return ""
	}

	filename := fmt.Sprintf("slow-%s-%s.trace", unsafeFilenameChars.ReplaceAllString(name, "_"),
		now.UTC().Format("20060102-150405"))
	path := filepath.Join(s.tracesDirectory, filename)
	written, err := s.writeTrace(path)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace",
			slog.String("file", path), errors.SlogError(err))
		return ""
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "captured slow call trace",
		slog.String("call", name),
		slog.Duration("elapsed", elapsed),
		slog.String("file", path),
		slog.Int64("bytes", written))
	return path
}

func (s *Service) writeTrace(path string) (n int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create trace file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
		}
	}()
	if n, err = s.recorder.WriteTo(f); err != nil {
		return n, fmt.Errorf("write trace: %w", err)
	}
	return n, nil
}
