package drape

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// StateTween animates an element's whole presentation from one state to
// another. Call Update(dt) each frame; values are applied to the target on
// every update. If the target is disposed the tween stops immediately.
//
// There is no global animation manager; owners call Update themselves.
type StateTween struct {
	tween    *gween.Tween
	from, to ElementState
	target   *Element
	Done     bool
}

// TweenState creates a tween that drives target from from to to over
// duration seconds. A nil easing function means linear.
func TweenState(target *Element, from, to ElementState, duration float32, fn ease.TweenFunc) *StateTween {
	if fn == nil {
		fn = ease.Linear
	}
	return &StateTween{
		tween:  gween.New(0, 1, duration, fn),
		from:   from,
		to:     to,
		target: target,
	}
}

// Update advances the tween by dt seconds and writes the interpolated state.
func (g *StateTween) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.IsDisposed() {
		g.Done = true
		return
	}
	val, finished := g.tween.Update(dt)
	g.target.State = LerpState(g.from, g.to, float64(val))
	g.Done = finished
}

// Stop ends the tween where it is.
func (g *StateTween) Stop() {
	g.Done = true
}

// easeProgress applies fn to a normalized progress value.
func easeProgress(fn ease.TweenFunc, p float64) float64 {
	if fn == nil {
		return p
	}
	return float64(fn(float32(p), 0, 1, 1))
}

// FloatTween drives a single float64 field, used for the entrance fade.
type FloatTween struct {
	tween *gween.Tween
	field *float64
	Done  bool
}

// TweenFloat animates *field from its current value to to.
func TweenFloat(field *float64, to float64, duration float32, fn ease.TweenFunc) *FloatTween {
	if fn == nil {
		fn = ease.Linear
	}
	return &FloatTween{tween: gween.New(float32(*field), float32(to), duration, fn), field: field}
}

// Update advances the tween by dt seconds.
func (f *FloatTween) Update(dt float32) {
	if f.Done {
		return
	}
	val, finished := f.tween.Update(dt)
	*f.field = float64(val)
	f.Done = finished
}
