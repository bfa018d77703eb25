package drape

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDebugMode_DisposedParentPanics(t *testing.T) {
	SetDebug(true)
	defer SetDebug(false)

	parent := NewElement("parent", Rect{}, ColorWhite)
	parent.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "parent") {
			t.Errorf("panic = %v, want element name", r)
		}
	}()
	parent.AddChild(NewElement("child", Rect{}, ColorWhite))
}

func TestReleaseMode_DisposedElementNoPanic(t *testing.T) {
	SetDebug(false)
	parent := NewElement("parent", Rect{}, ColorWhite)
	parent.Dispose()
	parent.AddChild(NewElement("child", Rect{}, ColorWhite))
}

func TestDebugMode_TreeDepthWarning(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)
	SetDebug(true)
	defer SetDebug(false)

	e := NewElement("e0", Rect{}, ColorWhite)
	for i := 0; i < debugMaxTreeDepth+1; i++ {
		child := NewElement("deep", Rect{}, ColorWhite)
		e.AddChild(child)
		e = child
	}
	if !strings.Contains(buf.String(), "element tree too deep") {
		t.Error("expected depth warning")
	}
}

func TestSchedulerDebugLog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	s, _, _, _ := newRecordingScheduler()
	s.Debug = true
	s.RequestFrame()
	s.Tick(0.1)

	out := buf.String()
	for _, want := range []string{"drape: frame", "cloth=", "strands=", "particles=", "total="} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestFrameStatsTotal(t *testing.T) {
	var f frameStats
	f.reset(3)
	f.update[0], f.update[1], f.update[2] = 1, 2, 3
	if f.total() != 6 {
		t.Errorf("total = %v, want 6", f.total())
	}
	f.reset(2)
	if f.total() != 0 || len(f.update) != 2 {
		t.Errorf("after reset = %v", f.update)
	}
}
