package drape

import (
	"errors"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// MountOptions carries the host collaborators of an engine.
type MountOptions struct {
	// Detector supplies the capability verdict and tier transitions. When
	// nil, a detector probing the running ebiten environment is created.
	Detector *Detector
	// Choreographer, when set, is reverted during Unmount after the frame
	// loop is cancelled and before GPU resources are released.
	Choreographer *Choreographer
	// DeviceScale is the display's device scale factor. Zero means 1.
	DeviceScale float64
	// Debug enables per-frame timing logs.
	Debug bool
}

// Engine is one mounted instance of the fabric effect inside a container
// rectangle. It renders into an offscreen canvas at the capped pixel
// density and composites the canvas into the container.
type Engine struct {
	container  Rect
	cfg        Config
	signals    *SignalCell
	capability Capability
	detector   *Detector
	choreo     *Choreographer
	watch      CallbackHandle

	scheduler *FrameScheduler
	cloth     *ClothSurface
	strands   *StrandSystem
	particles *ParticleField

	canvas      *ownedImage
	deviceScale float64
	density     float64

	opacity float64
	fade    *FloatTween
	op      ebiten.DrawImageOptions

	unmounted bool
}

// Mount validates cfg, consults the capability detector and builds every
// producer. It returns ErrDisabled when the capability check rules the
// effect out; callers draw the static poster instead. A cloth shader that
// fails to compile is logged and the cloth is omitted; Mount still
// succeeds.
func Mount(container Rect, cfg Config, signals *SignalCell, opts MountOptions) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	det := opts.Detector
	if det == nil {
		det = NewDetector(EbitenEnvironment{}, false)
	}
	capability := det.Capability()
	if !capability.Enabled {
		Logger().Warn("drape: effects disabled", "reason", capability.Reason)
		return nil, ErrDisabled
	}
	signals.SetTier(capability.Tier)

	e := &Engine{
		container:   container,
		cfg:         cfg,
		signals:     signals,
		capability:  capability,
		detector:    det,
		choreo:      opts.Choreographer,
		deviceScale: opts.DeviceScale,
	}
	if err := e.build(); err != nil {
		e.release()
		return nil, err
	}
	e.scheduler.Debug = opts.Debug || globalDebug
	e.watch = det.Watch(func(t DeviceTier) { signals.SetTier(t) })
	e.scheduler.RequestFrame()

	Logger().Info("drape: mounted",
		"tier", capability.Tier.String(),
		"producers", len(e.scheduler.Producers()),
		"density", e.density)
	return e, nil
}

func (e *Engine) build() error {
	e.scheduler = NewFrameScheduler(e.signals)

	cloth, err := newClothSurface(e.cfg.Cloth, e.cfg.Antialias)
	switch {
	case errors.Is(err, ErrShaderCompile):
		Logger().Warn("drape: cloth omitted", "err", err)
	case err != nil:
		return err
	default:
		e.cloth = cloth
		e.scheduler.Add(cloth)
	}

	strands, err := newStrandSystem(e.cfg.StrandCount, e.capability.Tier, e.cfg.Strands, e.cfg.Cloth, e.cfg.Antialias)
	if err != nil {
		return fmt.Errorf("drape: strands: %w", err)
	}
	if strands != nil {
		e.strands = strands
		e.scheduler.Add(strands)
	}

	if e.cfg.ParticleCount > 0 {
		particles, err := newParticleField(e.cfg.ParticleCount, e.cfg.Particles, e.cfg.Antialias)
		if err != nil {
			return fmt.Errorf("drape: particles: %w", err)
		}
		e.particles = particles
		e.scheduler.Add(particles)
	}

	e.layout()
	return nil
}

// pixelDensity is the render scale: the device scale capped by cfg.
func pixelDensity(deviceScale, limit float64) float64 {
	if deviceScale <= 0 {
		deviceScale = 1
	}
	return min(deviceScale, limit)
}

// layout sizes the canvas to the container and propagates bounds.
func (e *Engine) layout() {
	e.density = pixelDensity(e.deviceScale, e.cfg.PixelDensityCap)
	w := int(math.Ceil(e.container.Width * e.density))
	h := int(math.Ceil(e.container.Height * e.density))
	if e.canvas != nil {
		b := e.canvas.img.Bounds()
		if b.Dx() == max(w, 1) && b.Dy() == max(h, 1) {
			return
		}
		e.canvas.Dispose()
	}
	e.canvas = newOwnedImage(w, h)
	bounds := Rect{Width: float64(w), Height: float64(h)}
	if e.cloth != nil {
		e.cloth.SetBounds(bounds)
	}
	if e.strands != nil {
		e.strands.SetBounds(bounds)
	}
	if e.particles != nil {
		e.particles.SetBounds(bounds)
	}
}

// SetContainer moves or resizes the target rectangle in screen pixels.
func (e *Engine) SetContainer(r Rect) {
	if e.unmounted {
		return
	}
	e.container = r
	e.layout()
}

// SetDeviceScale updates the display scale factor.
func (e *Engine) SetDeviceScale(s float64) {
	if e.unmounted || s == e.deviceScale {
		return
	}
	e.deviceScale = s
	e.layout()
}

// Container returns the current target rectangle.
func (e *Engine) Container() Rect { return e.container }

// Density returns the current render scale.
func (e *Engine) Density() float64 { return e.density }

// Capability returns the verdict the engine was mounted with.
func (e *Engine) Capability() Capability { return e.capability }

// Scheduler exposes the frame loop.
func (e *Engine) Scheduler() *FrameScheduler { return e.scheduler }

// Cloth returns the cloth surface, or nil when it was omitted.
func (e *Engine) Cloth() *ClothSurface { return e.cloth }

// Strands returns the strand system, or nil when disabled.
func (e *Engine) Strands() *StrandSystem { return e.strands }

// Particles returns the particle field, or nil when disabled.
func (e *Engine) Particles() *ParticleField { return e.particles }

// Opacity returns the entrance opacity.
func (e *Engine) Opacity() float64 { return e.opacity }

// Mounted reports whether Unmount has not yet run.
func (e *Engine) Mounted() bool { return !e.unmounted }

// Update advances the entrance fade and runs one scheduler tick.
func (e *Engine) Update(dt float64) error {
	if e.unmounted {
		return ErrUnmounted
	}
	e.updateEntrance(dt)
	e.scheduler.Tick(dt)
	return nil
}

// updateEntrance holds the effect invisible until the host reports ready.
func (e *Engine) updateEntrance(dt float64) {
	if e.fade == nil {
		if !e.signals.Ready() {
			return
		}
		if e.signals.reducedMotion || e.cfg.EntranceDuration <= 0 {
			e.opacity = 1
			e.fade = &FloatTween{Done: true}
		} else {
			e.fade = TweenFloat(&e.opacity, 1, float32(e.cfg.EntranceDuration), ease.OutCubic)
		}
	}
	e.fade.Update(float32(dt))
	if e.cloth != nil {
		e.cloth.SetOpacity(e.opacity)
	}
	if e.strands != nil {
		e.strands.SetOpacity(e.opacity)
	}
	if e.particles != nil {
		e.particles.SetOpacity(e.opacity)
	}
}

// Draw renders every producer into the canvas and composites it into the
// container on dst.
func (e *Engine) Draw(dst *ebiten.Image) {
	if e.unmounted || e.opacity <= 0 {
		return
	}
	e.canvas.img.Clear()
	e.scheduler.Draw(e.canvas.img)

	e.op.GeoM.Reset()
	e.op.GeoM.Scale(1/e.density, 1/e.density)
	e.op.GeoM.Translate(e.container.X, e.container.Y)
	e.op.Filter = ebiten.FilterLinear
	dst.DrawImage(e.canvas.img, &e.op)
}

// Unmount tears the engine down: the frame loop is cancelled first, then
// the choreographer is reverted, then every GPU resource is released.
// Calling it again does nothing.
func (e *Engine) Unmount() {
	if e.unmounted {
		return
	}
	e.unmounted = true
	e.scheduler.Cancel()
	if e.choreo != nil {
		e.choreo.RevertAll()
	}
	e.watch.Remove()
	e.release()
	Logger().Info("drape: unmounted")
}

// release disposes producers and the canvas.
func (e *Engine) release() {
	if e.scheduler != nil {
		e.scheduler.dispose()
	}
	if e.canvas != nil {
		e.canvas.Dispose()
		e.canvas = nil
	}
}
