package drape

import (
	"testing"

	"github.com/tanema/gween/ease"
)

// timelineFixture is a 1000px viewport over a 5000px page with one card at
// y=1500. With the default reveal range its window is scroll 650..1150.
func timelineFixture() (*Viewport, *Choreographer, *Element) {
	vp := NewViewport(800, 1000)
	vp.SetContentHeight(5000)
	c := NewChoreographer(vp)
	card := NewElement("card", Rect{X: 100, Y: 1500, Width: 300, Height: 200}, ColorWhite)
	return vp, c, card
}

var (
	hidden  = ElementState{Opacity: 0, Y: 40, Scale: 1}
	visible = RestState
)

// --- Scrub ---

func TestTimelineScrubReversible(t *testing.T) {
	vp, c, card := timelineFixture()
	h := c.Register(TimelineEntry{Target: card, From: hidden, To: visible})
	if !h.Valid() {
		t.Fatal("Register returned the zero handle")
	}
	if card.State != hidden || c.State(h) != StateArmed {
		t.Errorf("initial = %+v (%v), want hidden armed", card.State, c.State(h))
	}

	vp.SetScroll(900)
	if card.State.Opacity != 0.5 || card.State.Y != 20 {
		t.Errorf("mid state = %+v, want opacity 0.5 y 20", card.State)
	}
	if c.State(h) != StateScrubbing {
		t.Errorf("state = %v, want scrubbing", c.State(h))
	}

	vp.SetScroll(2000)
	if card.State != visible || c.State(h) != StateArmed {
		t.Errorf("past end = %+v (%v)", card.State, c.State(h))
	}

	vp.SetScroll(900)
	if card.State.Opacity != 0.5 {
		t.Errorf("scrolling back: opacity = %v, want 0.5", card.State.Opacity)
	}
	vp.SetScroll(0)
	if card.State != hidden {
		t.Errorf("back at top = %+v, want hidden", card.State)
	}
}

func TestTimelineScrubEase(t *testing.T) {
	vp, c, card := timelineFixture()
	c.Register(TimelineEntry{Target: card, From: hidden, To: visible, Ease: ease.InQuad})
	vp.SetScroll(900)
	if card.State.Opacity != 0.25 {
		t.Errorf("eased opacity = %v, want 0.25", card.State.Opacity)
	}
}

// --- Once on enter ---

func TestTimelineOnceFiresAndNeverReverses(t *testing.T) {
	vp, c, card := timelineFixture()
	listeners := vp.ListenerCount()
	h := c.Register(TimelineEntry{Target: card, From: hidden, To: visible, Mode: ModeOnceOnEnter, Duration: 1})
	if card.State != hidden {
		t.Errorf("before entry = %+v, want hidden", card.State)
	}

	vp.SetScroll(700)
	if c.State(h) != StateFired {
		t.Fatalf("state = %v, want fired", c.State(h))
	}
	if vp.ListenerCount() != listeners {
		t.Errorf("listeners = %d after firing, want %d", vp.ListenerCount(), listeners)
	}
	if !c.Animating() {
		t.Error("Animating = false after firing")
	}

	c.Advance(0.5)
	if card.State.Opacity != 0.5 {
		t.Errorf("half way opacity = %v, want 0.5", card.State.Opacity)
	}
	vp.SetScroll(0)
	c.Advance(0.5)
	if card.State != visible {
		t.Errorf("after scrolling back = %+v, want visible", card.State)
	}
	if c.Animating() || c.State(h) != StateFired {
		t.Errorf("animating=%v state=%v, want idle fired", c.Animating(), c.State(h))
	}
}

func TestTimelineOnceZeroDuration(t *testing.T) {
	vp, c, card := timelineFixture()
	c.Register(TimelineEntry{Target: card, From: hidden, To: visible, Mode: ModeOnceOnEnter})
	vp.SetScroll(800)
	if card.State != visible || c.Animating() {
		t.Errorf("state = %+v animating=%v, want visible at once", card.State, c.Animating())
	}
}

func TestTimelineOnceAlreadyInRange(t *testing.T) {
	vp, c, card := timelineFixture()
	vp.SetScroll(1000)
	h := c.Register(TimelineEntry{Target: card, From: hidden, To: visible, Mode: ModeOnceOnEnter, Duration: 0.5})
	if c.State(h) != StateFired {
		t.Errorf("state = %v, want fired on registration", c.State(h))
	}
}

// --- Revert ---

func TestTimelineRevertRestores(t *testing.T) {
	vp, c, card := timelineFixture()
	card.State.X = 7
	saved := card.State
	listeners := vp.ListenerCount()

	h := c.Register(TimelineEntry{Target: card, From: hidden, To: visible, Mode: ModeOnceOnEnter, Duration: 2})
	vp.SetScroll(900)
	c.Advance(0.5)

	c.Revert(h)
	if card.State != saved {
		t.Errorf("after Revert = %+v, want %+v", card.State, saved)
	}
	if c.State(h) != StateDisposed || c.Len() != 0 {
		t.Errorf("state=%v len=%d, want disposed 0", c.State(h), c.Len())
	}
	if vp.ListenerCount() != listeners {
		t.Errorf("listeners = %d, want %d", vp.ListenerCount(), listeners)
	}
	// The killed tween must not write again.
	c.Advance(1)
	if card.State != saved {
		t.Errorf("state changed after Revert: %+v", card.State)
	}
	c.Revert(h)
}

func TestTimelineRevertAllNewestFirst(t *testing.T) {
	vp, c, card := timelineFixture()
	c.Register(TimelineEntry{Target: card, From: hidden, To: visible})
	c.Register(TimelineEntry{Target: card, From: ElementState{Opacity: 0.3, Scale: 2}, To: visible})
	vp.SetScroll(900)

	c.RevertAll()
	if card.State != RestState {
		t.Errorf("after RevertAll = %+v, want %+v", card.State, RestState)
	}
	if c.Len() != 0 || vp.ListenerCount() != 0 {
		t.Errorf("len=%d listeners=%d, want 0 0", c.Len(), vp.ListenerCount())
	}
}

// --- Missing targets ---

func TestTimelineMissingTarget(t *testing.T) {
	vp, c, card := timelineFixture()
	card.Dispose()
	tests := []struct {
		name   string
		target *Element
	}{
		{"nil", nil},
		{"disposed", card},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Register(TimelineEntry{Target: tt.target, From: hidden, To: visible})
			if h.Valid() {
				t.Error("handle should be zero")
			}
			if c.Len() != 0 || vp.ListenerCount() != 0 {
				t.Errorf("len=%d listeners=%d, want nothing registered", c.Len(), vp.ListenerCount())
			}
			c.Revert(h)
		})
	}
}

func TestTimelineTargetDisposedLater(t *testing.T) {
	vp, c, card := timelineFixture()
	h := c.Register(TimelineEntry{Target: card, From: hidden, To: visible})
	card.Dispose()
	vp.SetScroll(900)
	if card.State != hidden {
		t.Errorf("disposed target updated: %+v", card.State)
	}
	c.Revert(h)
	if card.State != hidden {
		t.Errorf("Revert wrote to a disposed target: %+v", card.State)
	}
}

func TestTimelineStateString(t *testing.T) {
	tests := []struct {
		s    TimelineState
		want string
	}{
		{StatePending, "pending"},
		{StateArmed, "armed"},
		{StateScrubbing, "scrubbing"},
		{StateFired, "fired"},
		{StateDisposed, "disposed"},
		{TimelineState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
