// Package mcpserver exposes the training service as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/myrjola/liftcoach/internal/coach"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/logging"
	"github.com/myrjola/liftcoach/internal/training"
)

const instructions = "liftcoach generates strength workouts from a lifter's weekly muscle volume, readiness, and " +
	"equipment, and tracks progression. Save a profile first, then generate workouts and log the sessions " +
	"performed. Identify the lifter with user_id on every call."

// SlowCallCapturer records diagnostics for a tool call that took longer than the configured threshold.
type SlowCallCapturer interface {
	CaptureSlowCall(ctx context.Context, name string, elapsed time.Duration) string
}

// Option configures the server.
type Option func(*handlers)

// WithSlowCallCapture hands every tool call slower than threshold to capturer.
func WithSlowCallCapture(threshold time.Duration, capturer SlowCallCapturer) Option {
	return func(h *handlers) {
		h.slowThreshold = threshold
		h.capturer = capturer
	}
}

// New creates an MCP server with every tool registered.
func New(svc *training.Service, version string, logger *slog.Logger, opts ...Option) *server.MCPServer {
	s := server.NewMCPServer("liftcoach", version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	h := &handlers{svc: svc, logger: logger, slowThreshold: 0, capturer: nil, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	s.AddTools(h.tools()...)
	return s
}

// handlers holds the dependencies of the tool handlers.
type handlers struct {
	svc           *training.Service
	logger        *slog.Logger
	slowThreshold time.Duration
	capturer      SlowCallCapturer
	now           func() time.Time
}

func (h *handlers) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: toolSaveProfile, Handler: h.instrument(toolSaveProfile.Name, h.saveProfile)},
		{Tool: toolGenerateWorkout, Handler: h.instrument(toolGenerateWorkout.Name, h.generateWorkout)},
		{Tool: toolLockWorkout, Handler: h.instrument(toolLockWorkout.Name, h.lockWorkout)},
		{Tool: toolLogSession, Handler: h.instrument(toolLogSession.Name, h.logSession)},
		{Tool: toolSuggestNextWeight, Handler: h.instrument(toolSuggestNextWeight.Name, h.suggestNextWeight)},
		{Tool: toolMuscleBalance, Handler: h.instrument(toolMuscleBalance.Name, h.muscleBalance)},
		{Tool: toolFindSubstitute, Handler: h.instrument(toolFindSubstitute.Name, h.findSubstitute)},
		{Tool: toolExportUserData, Handler: h.instrument(toolExportUserData.Name, h.exportUserData)},
	}
}

// instrument tags the context with the tool name so every log line of the call carries it, and hands slow calls
// to the capturer when one is configured. A panicking handler is logged with its source and reported to the
// client as a failed call.
func (h *handlers) instrument(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		ctx = logging.WithAttrs(ctx, slog.String("tool", name))
		defer func() {
			if panicErr := errors.DecoratePanic(recover()); panicErr != nil {
				h.logger.LogAttrs(ctx, slog.LevelError, "tool call panicked", errors.SlogError(panicErr))
				result, err = mcp.NewToolResultError(name+" failed unexpectedly"), nil
			}
		}()
		start := h.now()
		result, err = next(ctx, req)
		elapsed := h.now().Sub(start)
		h.logger.LogAttrs(ctx, slog.LevelDebug, "tool call", slog.Duration("elapsed", elapsed))
		if h.capturer != nil && elapsed >= h.slowThreshold {
			h.capturer.CaptureSlowCall(ctx, name, elapsed)
		}
		return result, err
	}
}

// fail reports err to the client as a tool error. Caller mistakes are logged as warnings, anything else as an
// error.
func (h *handlers) fail(ctx context.Context, msg string, err error) *mcp.CallToolResult {
	level := slog.LevelError
	if isClientError(err) {
		level = slog.LevelWarn
	}
	h.logger.LogAttrs(ctx, level, msg, errors.SlogError(err))
	return mcp.NewToolResultError(msg + ": " + err.Error())
}

func isClientError(err error) bool {
	for _, target := range []error{
		training.ErrNotFound,
		training.ErrUnknownExercise,
		training.ErrInvalidSession,
		training.ErrInvalidReadiness,
		coach.ErrInvalidProfile,
		coach.ErrNoSubstitute,
		errInvalidArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
