package drape

import "github.com/tanema/gween/ease"

// TimelineMode selects how an entry responds to its scroll range.
type TimelineMode uint8

const (
	// ModeScrub ties the element state to scroll progress in both
	// directions.
	ModeScrub TimelineMode = iota
	// ModeOnceOnEnter starts a timed transition the first time the range is
	// entered and never reverses.
	ModeOnceOnEnter
)

// TimelineState is the lifecycle of one registered entry.
type TimelineState uint8

const (
	StatePending   TimelineState = iota // created, not yet measured
	StateArmed                          // listening, outside the active range
	StateScrubbing                      // scrub entry inside its range
	StateFired                          // once-on-enter transition started
	StateDisposed                       // reverted
)

var timelineStateNames = [...]string{"pending", "armed", "scrubbing", "fired", "disposed"}

func (s TimelineState) String() string {
	if int(s) < len(timelineStateNames) {
		return timelineStateNames[s]
	}
	return "unknown"
}

// DefaultRevealRange starts when the element's top reaches 85% of the
// viewport height and ends when it reaches 35%.
var DefaultRevealRange = TriggerRange{
	Start: Anchor{Element: 0, Viewport: 0.85},
	End:   Anchor{Element: 0, Viewport: 0.35},
}

// TimelineEntry binds one element to a scroll-driven transition.
type TimelineEntry struct {
	Target *Element
	From   ElementState
	To     ElementState
	// Range is the scroll window; the zero value means DefaultRevealRange.
	Range TriggerRange
	Mode  TimelineMode
	// Duration is the transition length in seconds for ModeOnceOnEnter.
	Duration float32
	// Ease shapes the transition; nil is linear.
	Ease ease.TweenFunc
}

// TimelineHandle identifies a registered entry. The zero value refers to
// nothing, and reverting it does nothing.
type TimelineHandle struct {
	id uint32
}

// Valid reports whether the handle refers to a registration.
func (h TimelineHandle) Valid() bool { return h.id != 0 }

type timelineRecord struct {
	id       uint32
	entry    TimelineEntry
	saved    ElementState
	state    TimelineState
	progress float64
	tween    *StateTween
	listener CallbackHandle
}

// Choreographer is the registry of scroll-linked element transitions on one
// page. Entries are driven by viewport notifications; in-flight
// transitions advance through Advance.
type Choreographer struct {
	viewport *Viewport
	records  []*timelineRecord
	nextID   uint32
}

// NewChoreographer creates an empty registry bound to vp.
func NewChoreographer(vp *Viewport) *Choreographer {
	return &Choreographer{viewport: vp}
}

// Register measures the entry's target, applies its initial state and
// starts listening to scroll. A nil or disposed target is skipped and the
// zero handle is returned.
func (c *Choreographer) Register(entry TimelineEntry) TimelineHandle {
	if entry.Target == nil || entry.Target.IsDisposed() {
		name := ""
		if entry.Target != nil {
			name = entry.Target.Name
		}
		Logger().Debug("drape: timeline target missing, entry skipped", "element", name)
		return TimelineHandle{}
	}
	if entry.Range == (TriggerRange{}) {
		entry.Range = DefaultRevealRange
	}
	c.nextID++
	rec := &timelineRecord{
		id:    c.nextID,
		entry: entry,
		saved: entry.Target.State,
		state: StatePending,
	}
	c.records = append(c.records, rec)
	rec.listener = c.viewport.OnChange(func(*Viewport) { c.evaluate(rec) })
	rec.state = StateArmed
	if entry.Mode == ModeOnceOnEnter {
		entry.Target.State = entry.From
	}
	c.evaluate(rec)
	return TimelineHandle{id: rec.id}
}

// evaluate recomputes one entry from the current scroll offset.
func (c *Choreographer) evaluate(rec *timelineRecord) {
	e := &rec.entry
	if e.Target.IsDisposed() {
		Logger().Debug("drape: timeline target disposed, entry skipped", "element", e.Target.Name)
		return
	}
	p := e.Range.Progress(e.Target.Box, c.viewport.ScrollY(), c.viewport.Height)
	rec.progress = p

	switch e.Mode {
	case ModeScrub:
		e.Target.State = LerpState(e.From, e.To, easeProgress(e.Ease, p))
		if p > 0 && p < 1 {
			rec.state = StateScrubbing
		} else {
			rec.state = StateArmed
		}
	case ModeOnceOnEnter:
		if rec.state != StateArmed || p <= 0 {
			return
		}
		rec.state = StateFired
		rec.tween = TweenState(e.Target, e.From, e.To, e.Duration, e.Ease)
		if e.Duration <= 0 {
			e.Target.State = e.To
			rec.tween = nil
		}
		// Fired entries never react to scroll again.
		rec.listener.Remove()
	}
}

// Advance steps in-flight once-on-enter transitions by dt seconds.
func (c *Choreographer) Advance(dt float32) {
	for _, rec := range c.records {
		if rec.tween == nil {
			continue
		}
		rec.tween.Update(dt)
		if rec.tween.Done {
			rec.tween = nil
		}
	}
}

// State returns the lifecycle state for h. Unknown handles report
// StateDisposed.
func (c *Choreographer) State(h TimelineHandle) TimelineState {
	if rec := c.find(h); rec != nil {
		return rec.state
	}
	return StateDisposed
}

// Progress returns the last measured progress for h.
func (c *Choreographer) Progress(h TimelineHandle) float64 {
	if rec := c.find(h); rec != nil {
		return rec.progress
	}
	return 0
}

// Len returns the number of live registrations.
func (c *Choreographer) Len() int { return len(c.records) }

// Animating reports whether any transition is in flight.
func (c *Choreographer) Animating() bool {
	for _, rec := range c.records {
		if rec.tween != nil {
			return true
		}
	}
	return false
}

// Revert kills h's transition, detaches its listener and restores the
// target's state from before registration. Safe to call twice.
func (c *Choreographer) Revert(h TimelineHandle) {
	for i, rec := range c.records {
		if rec.id == h.id {
			c.revert(rec)
			copy(c.records[i:], c.records[i+1:])
			c.records[len(c.records)-1] = nil
			c.records = c.records[:len(c.records)-1]
			return
		}
	}
}

// RevertAll reverts every entry, newest first, so a target with several
// entries ends in the state it had before the first one.
func (c *Choreographer) RevertAll() {
	for i := len(c.records) - 1; i >= 0; i-- {
		c.revert(c.records[i])
		c.records[i] = nil
	}
	c.records = c.records[:0]
}

func (c *Choreographer) revert(rec *timelineRecord) {
	rec.listener.Remove()
	if rec.tween != nil {
		rec.tween.Stop()
		rec.tween = nil
	}
	if !rec.entry.Target.IsDisposed() {
		rec.entry.Target.State = rec.saved
	}
	rec.state = StateDisposed
}

func (c *Choreographer) find(h TimelineHandle) *timelineRecord {
	if h.id == 0 {
		return nil
	}
	for _, rec := range c.records {
		if rec.id == h.id {
			return rec
		}
	}
	return nil
}
