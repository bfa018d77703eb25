package drape

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// anchorScrollDuration is the length of ScrollToAnchor animations.
const anchorScrollDuration = 0.8

// Page is one navigable document: an element tree, its scroll-linked
// transitions and any mounted fabric effects. Build runs on every Mount and
// populates the page through Root, Animate and Effect; everything it
// creates is torn down by Unmount.
type Page struct {
	Name  string
	Build func(p *Page) error

	root     *Element
	stage    *Stage
	viewport *Viewport
	choreo   *Choreographer
	trackers []*ScrollTracker
	effects  []*pageEffect
	mounted  bool
}

// pageEffect is one engine bound to a section element, or the static poster
// shown in its place when the effect is disabled.
type pageEffect struct {
	section *Element
	signals *SignalCell
	pointer *PointerTracker
	engine  *Engine
	poster  *ownedImage
}

// NewPage creates an unmounted page.
func NewPage(name string, build func(p *Page) error) *Page {
	return &Page{Name: name, Build: build}
}

// Root returns the page's root element. Nil while unmounted.
func (p *Page) Root() *Element { return p.root }

// Viewport returns the stage viewport the page is mounted in.
func (p *Page) Viewport() *Viewport { return p.viewport }

// Choreographer returns the page's transition registry.
func (p *Page) Choreographer() *Choreographer { return p.choreo }

// Mounted reports whether the page is live.
func (p *Page) Mounted() bool { return p.mounted }

// Engines returns the mounted engines in creation order.
func (p *Page) Engines() []*Engine {
	var out []*Engine
	for _, fx := range p.effects {
		if fx.engine != nil {
			out = append(out, fx.engine)
		}
	}
	return out
}

// Mount builds the page inside stage. On a build error everything created
// so far is torn down before the error is returned.
func (p *Page) Mount(stage *Stage) error {
	if p.mounted {
		return nil
	}
	p.stage = stage
	p.viewport = stage.viewport
	p.root = NewElement("root", Rect{Width: stage.viewport.Width, Height: stage.viewport.Height}, Color{})
	p.choreo = NewChoreographer(p.viewport)
	p.mounted = true
	if p.Build != nil {
		if err := p.Build(p); err != nil {
			p.Unmount()
			return fmt.Errorf("drape: build page %q: %w", p.Name, err)
		}
	}
	p.viewport.SetContentHeight(contentBottom(p.root))
	return nil
}

// contentBottom is the lowest box edge in the tree.
func contentBottom(e *Element) float64 {
	b := e.Box.Y + e.Box.Height
	for _, c := range e.children {
		b = max(b, contentBottom(c))
	}
	return b
}

// Animate registers a scroll-linked transition on the page.
func (p *Page) Animate(entry TimelineEntry) TimelineHandle {
	return p.choreo.Register(entry)
}

// Track creates a scroll tracker living as long as the page.
func (p *Page) Track(trigger Rect, rng TriggerRange, onChange func(float32)) *ScrollTracker {
	t := NewScrollTracker(p.viewport, trigger, rng, onChange)
	p.trackers = append(p.trackers, t)
	return t
}

// Effect mounts a fabric engine over section. Scroll progress through the
// section and the pointer over it feed the engine's signal cell. When the
// effect is disabled the section shows the static poster and the returned
// engine is nil with a nil error.
func (p *Page) Effect(section *Element, cfg Config) (*Engine, error) {
	st := p.stage
	signals := NewSignalCell()
	signals.SetReducedMotion(st.ReducedMotion)
	fx := &pageEffect{
		section: section,
		signals: signals,
		pointer: NewPointerTracker(p.screenRect(section), 1),
	}
	p.trackers = append(p.trackers,
		NewScrollTracker(p.viewport, section.Box, TriggerRange{}, signals.SetScrollProgress))

	e, err := Mount(p.screenRect(section), cfg, signals, MountOptions{
		Detector:    st.detector,
		DeviceScale: st.deviceScale,
	})
	switch {
	case errors.Is(err, ErrDisabled):
		img, perr := RenderPoster(int(section.Box.Width), int(section.Box.Height), st.deviceScale, cfg)
		if perr != nil {
			return nil, perr
		}
		fx.poster = newOwnedImageFrom(img)
		section.Image = fx.poster.img
	case err != nil:
		return nil, err
	default:
		fx.engine = e
	}
	p.effects = append(p.effects, fx)
	// The host paints synchronously, so the entrance gate opens at once.
	signals.SetReady(true)
	return e, nil
}

// Tier returns the device tier of the stage the page is mounted on, for
// choosing DefaultConfig inside a build function. Unmounted pages report
// TierDesktop.
func (p *Page) Tier() DeviceTier {
	if p.stage == nil {
		return TierDesktop
	}
	return p.stage.detector.Capability().Tier
}

// inView reports whether any part of e's box is on screen.
func (p *Page) inView(e *Element) bool {
	return p.viewport.VisibleBounds().Intersects(e.Box)
}

// screenRect maps an element's layout box to screen pixels.
func (p *Page) screenRect(e *Element) Rect {
	r := e.Box
	r.Y -= p.viewport.ScrollY()
	return r
}

// ScrollToAnchor animates the viewport to the named element.
func (p *Page) ScrollToAnchor(name string) bool {
	if p.root == nil {
		return false
	}
	e := p.root.Find(name)
	if e == nil {
		return false
	}
	p.viewport.ScrollTo(e.Box.Y, anchorScrollDuration, ease.InOutCubic)
	return true
}

// observePointer feeds the raw pointer to every effect whose section is
// under it.
func (p *Page) observePointer(x, y float64) {
	for _, fx := range p.effects {
		if fx.engine == nil {
			continue
		}
		fx.pointer.Region = p.screenRect(fx.section)
		fx.pointer.Observe(x, y)
		if fx.pointer.Inside() {
			fx.signals.SetPointerNDC(fx.pointer.Raw())
		}
	}
}

// update advances transitions and every engine by dt seconds.
func (p *Page) update(dt float64) {
	if !p.mounted {
		return
	}
	p.choreo.Advance(float32(dt))
	for _, fx := range p.effects {
		if fx.engine == nil {
			continue
		}
		fx.signals.SetReducedMotion(p.stage.ReducedMotion)
		fx.engine.SetDeviceScale(p.stage.deviceScale)
		fx.engine.SetContainer(p.screenRect(fx.section))
		if err := fx.engine.Update(dt); err != nil {
			Logger().Debug("drape: engine update skipped", "page", p.Name, "err", err)
		}
	}
}

// draw renders the element tree, then each engine over its section.
func (p *Page) draw(dst *ebiten.Image, op *ebiten.DrawImageOptions) {
	if !p.mounted {
		return
	}
	drawTree(dst, p.root, identityTransform, 1, p.viewport.ScrollY(), op)
	for _, fx := range p.effects {
		if fx.engine != nil && p.inView(fx.section) {
			fx.engine.Draw(dst)
		}
	}
}

// Unmount tears the page down synchronously: every frame loop is
// cancelled, then every transition is reverted, then engines release their
// GPU resources. Trackers detach and the element tree is disposed last.
func (p *Page) Unmount() {
	if !p.mounted {
		return
	}
	p.mounted = false
	for _, fx := range p.effects {
		if fx.engine != nil {
			fx.engine.Scheduler().Cancel()
		}
	}
	p.choreo.RevertAll()
	for _, fx := range p.effects {
		if fx.engine != nil {
			fx.engine.Unmount()
		}
		if fx.poster != nil {
			fx.section.Image = nil
			fx.poster.Dispose()
		}
	}
	for _, t := range p.trackers {
		t.Close()
	}
	p.effects = nil
	p.trackers = nil
	p.root.Dispose()
	p.root = nil
	Logger().Info("drape: page unmounted", "page", p.Name)
}
