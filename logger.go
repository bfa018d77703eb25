package drape

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. The engine itself is single-threaded,
// but hosts may reconfigure logging from another goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by drape. By default drape produces
// no log output. Pass nil to restore the silent default.
//
// Log levels used by drape:
//   - [slog.LevelDebug]: per-frame timings, skipped timeline targets
//   - [slog.LevelInfo]: mount, unmount and navigation lifecycle
//   - [slog.LevelWarn]: non-fatal failures (shader compile, GPU absent)
//
// Example:
//
//	drape.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by drape.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
