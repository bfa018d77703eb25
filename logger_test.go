package drape

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerSilentByDefault(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should be disabled at every level")
	}
}

func TestSetLoggerCapturesOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	d := NewDetector(&fakeEnv{gpu: true, w: 1280, h: 800}, false)
	d.Resize(600, 800)

	if !strings.Contains(buf.String(), "device tier changed") {
		t.Errorf("log output = %q, want tier change message", buf.String())
	}
}
