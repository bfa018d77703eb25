package drape

import "github.com/hajimehoshi/ebiten/v2"

// PixelToNDC maps a pixel position inside region to normalized device
// coordinates: X in [-1, 1] left to right, Y in [-1, 1] bottom to top.
// Positions outside the region map outside [-1, 1].
func PixelToNDC(region Rect, x, y float64) Vec2 {
	if region.Width <= 0 || region.Height <= 0 {
		return Vec2{}
	}
	return Vec2{
		X: (x-region.X)/region.Width*2 - 1,
		Y: 1 - (y-region.Y)/region.Height*2,
	}
}

// PointerTracker follows a raw pointer target with exponential smoothing:
// smoothed += (raw - smoothed) * K once per Step. K trades lag for jitter:
// ripple effects want a snappier K, ambient drift a slower one.
type PointerTracker struct {
	// Region is the tracked pixel rectangle for Observe.
	Region Rect
	// K is the per-step smoothing factor in (0, 1]. 1 disables smoothing.
	K float64

	raw      Vec2
	smoothed Vec2
	inside   bool
}

// NewPointerTracker creates a tracker resting at the region center.
func NewPointerTracker(region Rect, k float64) *PointerTracker {
	return &PointerTracker{Region: region, K: clampSmoothing(k)}
}

// Observe records a raw pixel position. Positions outside Region are
// ignored, so the tracker holds the last known value after the pointer
// leaves instead of snapping to a default.
func (p *PointerTracker) Observe(x, y float64) {
	if !p.Region.Contains(x, y) {
		p.inside = false
		return
	}
	p.inside = true
	p.raw = PixelToNDC(p.Region, x, y)
}

// SetTarget sets the raw target directly in NDC, clamped to [-1, 1].
func (p *PointerTracker) SetTarget(ndc Vec2) {
	p.raw = Vec2{clampSigned(ndc.X), clampSigned(ndc.Y)}
}

// Step advances the smoothed value one frame toward the raw target and
// returns it.
func (p *PointerTracker) Step() Vec2 {
	k := clampSmoothing(p.K)
	p.smoothed.X += (p.raw.X - p.smoothed.X) * k
	p.smoothed.Y += (p.raw.Y - p.smoothed.Y) * k
	return p.smoothed
}

// Reset snaps both raw and smoothed values to ndc.
func (p *PointerTracker) Reset(ndc Vec2) {
	p.SetTarget(ndc)
	p.smoothed = p.raw
}

// Raw returns the latest raw target.
func (p *PointerTracker) Raw() Vec2 { return p.raw }

// Smoothed returns the current smoothed value.
func (p *PointerTracker) Smoothed() Vec2 { return p.smoothed }

// Inside reports whether the last observed position was inside Region.
func (p *PointerTracker) Inside() bool { return p.inside }

// cursorPosition reads the primary pointer: the first active touch if any,
// otherwise the mouse cursor.
func cursorPosition(touchBuf []ebiten.TouchID) (x, y float64, buf []ebiten.TouchID) {
	buf = ebiten.AppendTouchIDs(touchBuf[:0])
	if len(buf) > 0 {
		tx, ty := ebiten.TouchPosition(buf[0])
		return float64(tx), float64(ty), buf
	}
	mx, my := ebiten.CursorPosition()
	return float64(mx), float64(my), buf
}

func clampSmoothing(k float64) float64 {
	if k <= 0 {
		return 0.01
	}
	if k > 1 {
		return 1
	}
	return k
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
