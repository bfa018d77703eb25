package drape

import "github.com/hajimehoshi/ebiten/v2"

// MobileBreakpoint is the screen width, in pixels, below which the device is
// treated as TierMobile.
const MobileBreakpoint = 768

// Environment answers the capability questions the detector asks once at
// mount time.
type Environment interface {
	// GPUAvailable reports whether a GPU-accelerated context exists.
	GPUAvailable() bool
	// ScreenSize returns the current screen size in pixels.
	ScreenSize() (width, height int)
}

// EbitenEnvironment probes the running Ebitengine instance. It must be
// queried from inside the game loop; before the first Update the graphics
// library is still unknown and GPUAvailable reports false.
type EbitenEnvironment struct{}

// GPUAvailable reports whether Ebitengine initialized a graphics library.
func (EbitenEnvironment) GPUAvailable() bool {
	var info ebiten.DebugInfo
	ebiten.ReadDebugInfo(&info)
	return info.GraphicsLibrary != ebiten.GraphicsLibraryUnknown
}

// ScreenSize returns the size of the monitor the window is on, or zero
// when no monitor is available.
func (EbitenEnvironment) ScreenSize() (int, int) {
	return monitorSize(ebiten.Monitor())
}

// monitorSize is m's size; Monitor returns nil once the loop has ended.
func monitorSize(m *ebiten.MonitorType) (int, int) {
	if m == nil {
		return 0, 0
	}
	return m.Size()
}

// Capability is the detector's verdict.
type Capability struct {
	// Enabled is false when no GPU context exists or motion must be
	// suppressed; the engine then never mounts.
	Enabled bool
	Tier    DeviceTier
	// Reason explains a disabled verdict: "no-gpu" or "reduced-motion".
	Reason string
}

// TierForWidth classifies a screen width.
func TierForWidth(width int) DeviceTier {
	if width > 0 && width < MobileBreakpoint {
		return TierMobile
	}
	return TierDesktop
}

// Detect queries env once and selects the mode.
func Detect(env Environment, reducedMotion bool) Capability {
	w, _ := env.ScreenSize()
	c := Capability{Enabled: true, Tier: TierForWidth(w)}
	switch {
	case !env.GPUAvailable():
		c.Enabled = false
		c.Reason = "no-gpu"
	case reducedMotion:
		c.Enabled = false
		c.Reason = "reduced-motion"
	}
	return c
}

// Detector keeps the device tier current across resizes after the initial
// probe. Tier watchers fire only on tier transitions.
type Detector struct {
	env           Environment
	reducedMotion bool
	capability    Capability
	width         int
	height        int
	laidOut       bool
	watchers      listenerList[DeviceTier]
}

// NewDetector probes env once.
func NewDetector(env Environment, reducedMotion bool) *Detector {
	d := &Detector{env: env, reducedMotion: reducedMotion}
	d.Probe()
	return d
}

// Probe re-queries the environment. Hosts call it once the graphics
// context exists and again when the motion preference changes. After the
// first Resize the tier follows the layout width, not the monitor, and a
// tier change is reported to watchers.
func (d *Detector) Probe() {
	prev := d.capability.Tier
	if !d.laidOut {
		d.width, d.height = d.env.ScreenSize()
	}
	c := Detect(d.env, d.reducedMotion)
	if d.laidOut {
		c.Tier = TierForWidth(d.width)
	}
	d.capability = c
	if c.Tier != prev {
		d.tierChanged()
	}
}

// SetReducedMotion records the motion preference for the next Probe.
func (d *Detector) SetReducedMotion(v bool) {
	d.reducedMotion = v
}

// Capability returns the current verdict.
func (d *Detector) Capability() Capability {
	return d.capability
}

// Resize feeds a new screen size. Called by the stage from Layout.
func (d *Detector) Resize(width, height int) {
	if d.laidOut && width == d.width && height == d.height {
		return
	}
	d.laidOut = true
	d.width, d.height = width, height
	tier := TierForWidth(width)
	if tier == d.capability.Tier {
		return
	}
	d.capability.Tier = tier
	d.tierChanged()
}

func (d *Detector) tierChanged() {
	Logger().Debug("drape: device tier changed", "tier", d.capability.Tier.String(), "width", d.width)
	d.watchers.emit(d.capability.Tier)
}

// Watch registers fn to receive tier transitions. The returned handle must
// be removed on teardown.
func (d *Detector) Watch(fn func(DeviceTier)) CallbackHandle {
	return d.watchers.add(fn)
}

// WatcherCount returns the number of attached tier watchers.
func (d *Detector) WatcherCount() int {
	return d.watchers.len()
}
