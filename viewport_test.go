package drape

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestViewportScrollClamps(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(2000)

	tests := []struct {
		set, want float64
	}{
		{-50, 0},
		{300, 300},
		{1400, 1400},
		{5000, 1400},
	}
	for _, tt := range tests {
		v.SetScroll(tt.set)
		if v.ScrollY() != tt.want {
			t.Errorf("SetScroll(%v): ScrollY = %v, want %v", tt.set, v.ScrollY(), tt.want)
		}
	}
}

func TestViewportNotifiesOnlyOnChange(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(2000)
	calls := 0
	h := v.OnChange(func(*Viewport) { calls++ })

	v.SetScroll(100)
	v.SetScroll(100)
	v.ScrollBy(0)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	v.SetSize(800, 500)
	if calls != 2 {
		t.Errorf("calls after resize = %d, want 2", calls)
	}

	h.Remove()
	v.SetScroll(200)
	if calls != 2 {
		t.Error("removed listener fired")
	}
	if v.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", v.ListenerCount())
	}
}

func TestViewportScrollToAnimates(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(3000)
	v.ScrollTo(1000, 1, ease.Linear)
	if !v.Scrolling() {
		t.Fatal("expected animation in flight")
	}
	v.update(0.5)
	if math.Abs(v.ScrollY()-500) > 1 {
		t.Errorf("halfway ScrollY = %v, want ~500", v.ScrollY())
	}
	v.update(0.5)
	if v.Scrolling() || math.Abs(v.ScrollY()-1000) > 0.5 {
		t.Errorf("ScrollY = %v scrolling=%v, want 1000 done", v.ScrollY(), v.Scrolling())
	}
}

func TestViewportSetScrollCancelsAnimation(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(3000)
	v.ScrollTo(1000, 1, nil)
	v.SetScroll(10)
	v.update(0.5)
	if v.ScrollY() != 10 {
		t.Errorf("ScrollY = %v, want 10", v.ScrollY())
	}
}

func TestViewportCoordinateMapping(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetContentHeight(2000)
	v.SetScroll(250)
	sx, sy := v.PageToScreen(10, 300)
	if sx != 10 || sy != 50 {
		t.Errorf("PageToScreen = (%v, %v), want (10, 50)", sx, sy)
	}
	x, y := v.ScreenToPage(sx, sy)
	if x != 10 || y != 300 {
		t.Errorf("ScreenToPage = (%v, %v), want (10, 300)", x, y)
	}
}
