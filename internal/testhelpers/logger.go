// Package testhelpers holds logging fixtures shared by the package tests.
package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/liftcoach/internal/logging"
)

// NewLogger returns a debug level logger writing to logSink, usually a [Writer] from [NewWriter].
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.NewLogger(logSink, slog.LevelDebug)
}
