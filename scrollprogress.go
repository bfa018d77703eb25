package drape

// Anchor pairs a point on an element with a point on the viewport. Element
// is a fraction of the element's height from its top edge; Viewport is a
// fraction of the viewport's height from its top edge. Anchor{0, 1} reads
// "element top meets viewport bottom".
type Anchor struct {
	Element  float64 `json:"element"`
	Viewport float64 `json:"viewport"`
}

// Common anchors.
var (
	AnchorTopBottom    = Anchor{Element: 0, Viewport: 1}
	AnchorTopTop       = Anchor{Element: 0, Viewport: 0}
	AnchorBottomTop    = Anchor{Element: 1, Viewport: 0}
	AnchorBottomBottom = Anchor{Element: 1, Viewport: 1}
)

// TriggerRange is the scroll window over which progress runs from 0 to 1,
// expressed relative to an element's position in the viewport. StartOffset
// and EndOffset shift either end by a number of pixels of scroll.
type TriggerRange struct {
	Start       Anchor  `json:"start"`
	End         Anchor  `json:"end"`
	StartOffset float64 `json:"startOffset"`
	EndOffset   float64 `json:"endOffset"`
}

// ScrollWindow returns the scroll offsets at which the range starts and ends
// for an element occupying box (page space) in a viewport of height vh.
func (r TriggerRange) ScrollWindow(box Rect, vh float64) (start, end float64) {
	start = box.Y + r.Start.Element*box.Height - r.Start.Viewport*vh + r.StartOffset
	end = box.Y + r.End.Element*box.Height - r.End.Viewport*vh + r.EndOffset
	return start, end
}

// Progress returns the normalized position of scrollY within the range,
// clamped to [0, 1]. A degenerate range acts as a step at its start.
func (r TriggerRange) Progress(box Rect, scrollY, vh float64) float64 {
	start, end := r.ScrollWindow(box, vh)
	if end <= start {
		if scrollY >= start {
			return 1
		}
		return 0
	}
	return clamp01((scrollY - start) / (end - start))
}

// ScrollTracker publishes a section-scoped scroll progress. It is recomputed
// from the raw scroll offset on every viewport change and is never smoothed
// or accumulated, so it decreases when the user scrolls back up.
type ScrollTracker struct {
	// Trigger is the tracked region in page space.
	Trigger Rect
	// Range maps the trigger's position to progress. The zero value is
	// replaced by "top top" to "bottom top".
	Range TriggerRange

	viewport *Viewport
	handle   CallbackHandle
	progress float32
	onChange func(float32)
	closed   bool
}

// NewScrollTracker binds a tracker to vp. onChange, when non-nil, receives
// progress after every recomputation; it is how trackers feed a SignalCell.
func NewScrollTracker(vp *Viewport, trigger Rect, rng TriggerRange, onChange func(float32)) *ScrollTracker {
	if rng == (TriggerRange{}) {
		rng = TriggerRange{Start: AnchorTopTop, End: AnchorBottomTop}
	}
	t := &ScrollTracker{
		Trigger:  trigger,
		Range:    rng,
		viewport: vp,
		onChange: onChange,
	}
	t.handle = vp.OnChange(func(*Viewport) { t.recompute() })
	t.recompute()
	return t
}

// Progress returns the most recently computed progress in [0, 1].
func (t *ScrollTracker) Progress() float32 {
	return t.progress
}

// SetTrigger moves the tracked region (e.g. after a layout change) and
// recomputes immediately.
func (t *ScrollTracker) SetTrigger(trigger Rect) {
	t.Trigger = trigger
	t.recompute()
}

// Close detaches the tracker from its viewport. Safe to call twice.
func (t *ScrollTracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.handle.Remove()
	t.onChange = nil
}

func (t *ScrollTracker) recompute() {
	if t.closed {
		return
	}
	vp := t.viewport
	t.progress = float32(t.Range.Progress(t.Trigger, vp.ScrollY(), vp.Height))
	if t.onChange != nil {
		t.onChange(t.progress)
	}
}
