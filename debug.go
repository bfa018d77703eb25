package drape

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// frameStats holds per-producer update timings for one tick.
// Only populated when FrameScheduler.Debug is true.
type frameStats struct {
	update []time.Duration
}

func (f *frameStats) reset(n int) {
	if cap(f.update) < n {
		f.update = make([]time.Duration, n)
	}
	f.update = f.update[:n]
	clear(f.update)
}

func (f *frameStats) total() time.Duration {
	var sum time.Duration
	for _, d := range f.update {
		sum += d
	}
	return sum
}

// debugLog emits the last tick's timings at Debug level.
func (s *FrameScheduler) debugLog() {
	l := Logger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := make([]any, 0, len(s.producers)+2)
	attrs = append(attrs, slog.Uint64("frame", s.frames))
	for i, p := range s.producers {
		attrs = append(attrs, slog.Duration(p.Name(), s.stats.update[i]))
	}
	attrs = append(attrs, slog.Duration("total", s.stats.total()))
	l.Debug("drape: frame", attrs...)
}

// debugCheckDisposed panics with a descriptive message when a disposed
// element is used in a tree operation. Only called in debug mode.
func debugCheckDisposed(e *Element, op string) {
	if e.disposed {
		panic(fmt.Sprintf("drape debug: %s on disposed element %q", op, e.Name))
	}
}

// debugMaxTreeDepth is the depth past which element trees are reported.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(e *Element) {
	depth := 0
	for p := e; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("drape: element tree too deep",
			"element", e.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// globalDebug enables the element tree checks above. Plain bool; drape is
// single-threaded.
var globalDebug bool

// SetDebug toggles tree checks and per-frame timing logs for schedulers
// created afterwards.
func SetDebug(enabled bool) {
	globalDebug = enabled
}
