package gx

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gx/backend/software"
	"github.com/gogpu/gx/internal/pool"
	"github.com/gogpu/gx/text"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for gx and its sub-packages.
// By default, gx produces no log output. Pass nil to restore silence.
//
// Log levels used by gx:
//   - [slog.LevelDebug]: batch flushes, texture uploads, skipped degenerate draws
//   - [slog.LevelInfo]: device and backend selection
//   - [slog.LevelWarn]: stack underflow, resource release errors
//
// Devices opened after the call that accept a logger receive it as well.
//
// Example:
//
//	gx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	pool.SetLogger(l)
	software.SetLogger(l)
	text.SetLogger(l)
}

// Logger returns the current logger used by gx.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the current logger to dev if it accepts one.
func propagateLogger(dev any) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(Logger())
	}
}
