package drape

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Producer is one visual subsystem driven by the frame scheduler. Update
// receives the frame's snapshot; Draw submits what Update computed. Dispose
// releases every GPU-side resource the producer owns and must be safe to
// call more than once.
type Producer interface {
	Name() string
	Update(SceneState)
	Draw(dst *ebiten.Image)
	Dispose()
}

// FrameScheduler owns the per-frame loop of one mounted engine. On every
// tick it takes exactly one snapshot of the SignalCell and hands that same
// value to each producer in registration order.
type FrameScheduler struct {
	signals   *SignalCell
	producers []Producer
	elapsed   float64
	pending   bool
	cancelled bool
	frames    uint64
	last      SceneState

	// Debug records per-producer update timings and logs them at Debug.
	Debug bool
	stats frameStats
}

// NewFrameScheduler creates a scheduler reading from signals. producers are
// updated and drawn in the order given.
func NewFrameScheduler(signals *SignalCell, producers ...Producer) *FrameScheduler {
	return &FrameScheduler{signals: signals, producers: producers}
}

// Add appends a producer to the end of the fixed order.
func (s *FrameScheduler) Add(p Producer) {
	s.producers = append(s.producers, p)
}

// Producers returns the producers in update order.
func (s *FrameScheduler) Producers() []Producer { return s.producers }

// RequestFrame schedules the next tick. It does nothing after Cancel.
func (s *FrameScheduler) RequestFrame() {
	if s.cancelled {
		return
	}
	s.pending = true
}

// Pending reports whether a frame is scheduled.
func (s *FrameScheduler) Pending() bool { return s.pending }

// Cancel drops the pending frame. Every later Tick, Draw and RequestFrame
// is a no-op.
func (s *FrameScheduler) Cancel() {
	s.pending = false
	s.cancelled = true
}

// Cancelled reports whether Cancel has run.
func (s *FrameScheduler) Cancelled() bool { return s.cancelled }

// Frames returns the number of ticks processed.
func (s *FrameScheduler) Frames() uint64 { return s.frames }

// Elapsed returns the scheduler clock in seconds.
func (s *FrameScheduler) Elapsed() float64 { return s.elapsed }

// LastState returns the snapshot used by the most recent tick.
func (s *FrameScheduler) LastState() SceneState { return s.last }

// Tick advances the clock by dt seconds and, when a frame is pending, runs
// one update pass and re-arms itself. It reports whether a pass ran.
func (s *FrameScheduler) Tick(dt float64) bool {
	if s.cancelled || !s.pending {
		return false
	}
	s.elapsed += dt
	state := s.signals.Snapshot(s.elapsed)
	s.last = state
	s.frames++

	if s.Debug {
		s.stats.reset(len(s.producers))
	}
	for i, p := range s.producers {
		var t0 time.Time
		if s.Debug {
			t0 = time.Now()
		}
		p.Update(state)
		if s.Debug {
			s.stats.update[i] = time.Since(t0)
		}
	}
	if s.Debug {
		s.debugLog()
	}
	s.pending = true
	return true
}

// Draw submits every producer in update order. Nothing is drawn before the
// first tick or after Cancel.
func (s *FrameScheduler) Draw(dst *ebiten.Image) {
	if s.cancelled || s.frames == 0 {
		return
	}
	for _, p := range s.producers {
		p.Draw(dst)
	}
}

// dispose releases every producer in order and forgets them.
func (s *FrameScheduler) dispose() {
	for _, p := range s.producers {
		p.Dispose()
	}
	s.producers = nil
}
