package drape

// SceneState is the per-frame snapshot every visual producer reads. It is
// rebuilt from the SignalCell once per tick and passed by value, so every
// producer in a frame sees identical inputs.
type SceneState struct {
	TimeSeconds float64
	// ScrollProgress is a pure function of the current scroll offset.
	ScrollProgress float32
	// PointerNDC is the raw pointer in [-1, 1]^2, Y up. Producers apply
	// their own smoothing.
	PointerNDC    Vec2
	Tier          DeviceTier
	ReducedMotion bool
}

// SignalCell holds the latest value of each input signal. Event handlers
// write it; only the frame scheduler reads it. Each field has exactly one
// writer: the section's ScrollTracker for scroll, the stage input loop for
// pointer, the capability watcher for tier, and the host for the flags.
// There is one thread, so no locking.
type SignalCell struct {
	scrollProgress float32
	pointerNDC     Vec2
	tier           DeviceTier
	reducedMotion  bool
	ready          bool
}

// NewSignalCell returns a cell with the pointer centered and progress 0.
func NewSignalCell() *SignalCell {
	return &SignalCell{}
}

// SetScrollProgress stores p clamped to [0, 1].
func (c *SignalCell) SetScrollProgress(p float32) {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	c.scrollProgress = p
}

// SetPointerNDC stores the raw pointer in NDC, clamped to [-1, 1]^2.
func (c *SignalCell) SetPointerNDC(v Vec2) {
	c.pointerNDC = Vec2{clampSigned(v.X), clampSigned(v.Y)}
}

// SetTier stores the device tier.
func (c *SignalCell) SetTier(t DeviceTier) { c.tier = t }

// SetReducedMotion stores the reduced-motion preference.
func (c *SignalCell) SetReducedMotion(v bool) { c.reducedMotion = v }

// SetReady opens the entrance gate. The first paint only fades in after the
// host reports readiness.
func (c *SignalCell) SetReady(v bool) { c.ready = v }

// Ready reports whether the host has opened the entrance gate.
func (c *SignalCell) Ready() bool { return c.ready }

// ScrollProgress returns the latest scroll progress.
func (c *SignalCell) ScrollProgress() float32 { return c.scrollProgress }

// Snapshot freezes the cell into a SceneState at time t.
func (c *SignalCell) Snapshot(t float64) SceneState {
	return SceneState{
		TimeSeconds:    t,
		ScrollProgress: c.scrollProgress,
		PointerNDC:     c.pointerNDC,
		Tier:           c.tier,
		ReducedMotion:  c.reducedMotion,
	}
}
