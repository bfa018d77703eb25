package drape

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Viewport is the visible window onto a page. ScrollY is the page-space Y of
// the viewport's top edge. Scroll and resize changes notify listeners
// synchronously; listeners only write signal cells and never draw.
type Viewport struct {
	// Width and Height are the on-screen size in pixels.
	Width, Height float64

	scrollY       float64
	contentHeight float64
	listeners     listenerList[*Viewport]

	scrollTween *gween.Tween
}

// NewViewport creates a viewport of the given size scrolled to the top.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{Width: width, Height: height, contentHeight: height}
}

// ScrollY returns the current scroll offset.
func (v *Viewport) ScrollY() float64 {
	return v.scrollY
}

// ContentHeight returns the height of the page being scrolled.
func (v *Viewport) ContentHeight() float64 {
	return v.contentHeight
}

// SetContentHeight sets the scrollable page height and re-clamps the offset.
func (v *Viewport) SetContentHeight(h float64) {
	v.contentHeight = h
	v.SetScroll(v.scrollY)
}

// MaxScroll returns the largest valid scroll offset.
func (v *Viewport) MaxScroll() float64 {
	return max(v.contentHeight-v.Height, 0)
}

// SetScroll jumps to y, clamped to [0, MaxScroll], and cancels any ScrollTo
// animation. Listeners fire only when the offset actually changes.
func (v *Viewport) SetScroll(y float64) {
	v.scrollTween = nil
	v.setScroll(y)
}

// ScrollBy offsets the scroll position by dy pixels.
func (v *Viewport) ScrollBy(dy float64) {
	v.SetScroll(v.scrollY + dy)
}

// ScrollTo animates the scroll offset to y over duration seconds.
func (v *Viewport) ScrollTo(y float64, duration float32, easeFn ease.TweenFunc) {
	y = clampScroll(y, v.MaxScroll())
	if duration <= 0 {
		v.SetScroll(y)
		return
	}
	if easeFn == nil {
		easeFn = ease.Linear
	}
	v.scrollTween = gween.New(float32(v.scrollY), float32(y), duration, easeFn)
}

// Scrolling reports whether a ScrollTo animation is in flight.
func (v *Viewport) Scrolling() bool {
	return v.scrollTween != nil
}

// SetSize resizes the viewport. Listeners are notified even when the scroll
// offset is unchanged, since range-relative progress depends on Height.
func (v *Viewport) SetSize(width, height float64) {
	if width == v.Width && height == v.Height {
		return
	}
	v.Width = width
	v.Height = height
	v.scrollY = clampScroll(v.scrollY, v.MaxScroll())
	v.listeners.emit(v)
}

// OnChange registers fn to run after every scroll or resize change.
func (v *Viewport) OnChange(fn func(*Viewport)) CallbackHandle {
	return v.listeners.add(fn)
}

// ListenerCount returns the number of registered change listeners.
func (v *Viewport) ListenerCount() int {
	return v.listeners.len()
}

// VisibleBounds returns the page-space rectangle currently in view.
func (v *Viewport) VisibleBounds() Rect {
	return Rect{X: 0, Y: v.scrollY, Width: v.Width, Height: v.Height}
}

// PageToScreen converts a page-space point to screen space.
func (v *Viewport) PageToScreen(x, y float64) (sx, sy float64) {
	return x, y - v.scrollY
}

// ScreenToPage converts a screen-space point to page space.
func (v *Viewport) ScreenToPage(sx, sy float64) (x, y float64) {
	return sx, sy + v.scrollY
}

// update advances the ScrollTo animation. Called from Stage.Update.
func (v *Viewport) update(dt float32) {
	if v.scrollTween == nil {
		return
	}
	val, done := v.scrollTween.Update(dt)
	if done {
		v.scrollTween = nil
	}
	v.setScroll(float64(val))
}

func (v *Viewport) setScroll(y float64) {
	y = clampScroll(y, v.MaxScroll())
	if y == v.scrollY {
		return
	}
	v.scrollY = y
	v.listeners.emit(v)
}

func clampScroll(y, maxY float64) float64 {
	if y < 0 {
		return 0
	}
	if y > maxY {
		return maxY
	}
	return y
}
