package drape

import (
	"math"
	"testing"
)

func TestTriggerRangeProgress(t *testing.T) {
	box := Rect{Y: 1000, Height: 400}
	const vh = 600

	// Default section range: top at viewport top -> bottom at viewport top.
	rng := TriggerRange{Start: AnchorTopTop, End: AnchorBottomTop}
	tests := []struct {
		scroll, want float64
	}{
		{0, 0},
		{1000, 0},
		{1100, 0.25},
		{1200, 0.5},
		{1400, 1},
		{9000, 1},
	}
	for _, tt := range tests {
		if got := rng.Progress(box, tt.scroll, vh); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Progress(%v) = %v, want %v", tt.scroll, got, tt.want)
		}
	}
}

func TestTriggerRangeRevealWindow(t *testing.T) {
	box := Rect{Y: 1000, Height: 300}
	start, end := DefaultRevealRange.ScrollWindow(box, 1000)
	// Element top at 85% of the viewport, then at 35%.
	if math.Abs(start-150) > 1e-9 || math.Abs(end-650) > 1e-9 {
		t.Errorf("window = (%v, %v), want (150, 650)", start, end)
	}
}

func TestTriggerRangeOffsets(t *testing.T) {
	box := Rect{Y: 0, Height: 100}
	rng := TriggerRange{Start: AnchorTopTop, End: AnchorBottomTop, StartOffset: 20, EndOffset: -20}
	start, end := rng.ScrollWindow(box, 500)
	if start != 20 || end != 80 {
		t.Errorf("window = (%v, %v), want (20, 80)", start, end)
	}
}

func TestTriggerRangeDegenerateIsStep(t *testing.T) {
	box := Rect{Y: 500, Height: 0}
	rng := TriggerRange{Start: AnchorTopTop, End: AnchorTopTop}
	if rng.Progress(box, 499, 600) != 0 || rng.Progress(box, 500, 600) != 1 {
		t.Error("degenerate range should step at its start")
	}
}

func TestScrollTrackerPureFunctionOfOffset(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(4000)
	var published []float32
	tr := NewScrollTracker(v, Rect{Y: 0, Height: 1200}, TriggerRange{}, func(p float32) {
		published = append(published, p)
	})

	v.SetScroll(300)
	up := tr.Progress()
	v.SetScroll(900)
	v.SetScroll(300)
	if tr.Progress() != up {
		t.Errorf("progress after scrolling back = %v, want %v", tr.Progress(), up)
	}
	if up != 0.25 {
		t.Errorf("progress = %v, want 0.25", up)
	}
	if len(published) != 4 { // initial + three changes
		t.Errorf("published %d values, want 4", len(published))
	}
}

func TestScrollTrackerCloseDetaches(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(4000)
	tr := NewScrollTracker(v, Rect{Height: 1200}, TriggerRange{}, nil)
	if v.ListenerCount() != 1 {
		t.Fatalf("ListenerCount = %d, want 1", v.ListenerCount())
	}
	tr.Close()
	tr.Close()
	if v.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", v.ListenerCount())
	}
	before := tr.Progress()
	v.SetScroll(600)
	if tr.Progress() != before {
		t.Error("closed tracker recomputed")
	}
}

func TestScrollTrackerResize(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(4000)
	// Reveal-style range depends on viewport height.
	tr := NewScrollTracker(v, Rect{Y: 1000, Height: 200}, DefaultRevealRange, nil)
	v.SetScroll(600)
	a := tr.Progress()
	v.SetSize(800, 900)
	if tr.Progress() == a {
		t.Error("progress should be recomputed on resize")
	}
}
