package drape

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"
)

const (
	defaultWheelStep     = 60
	defaultScreenshotDir = "screenshots"
	pageScrollDuration   = 0.45
)

// Stage is the host window. It implements ebiten.Game: input is read once
// per tick and written into the mounted page's signal cells, the viewport
// and transitions advance, and every engine runs one frame.
type Stage struct {
	// Background fills the screen before the page is drawn.
	Background Color
	// ReducedMotion suppresses the effect: pages mounted while it is set
	// show the static poster. Engines already mounted freeze in their rest
	// pose.
	ReducedMotion bool
	// WheelStep is the scroll distance of one wheel notch in pixels.
	WheelStep float64
	// ScreenshotDir receives PNGs queued by Screenshot.
	ScreenshotDir string
	// ShowDebug draws the FPS and scroll overlay.
	ShowDebug bool

	viewport    *Viewport
	detector    *Detector
	deviceScale float64
	pages       map[string]*Page
	page        *Page
	pending     *Page
	started     bool
	op          ebiten.DrawImageOptions

	touchBuf     []ebiten.TouchID
	pointerX     float64
	pointerY     float64
	pointerKnown bool

	injectQueue     []syntheticEvent
	testRunner      *TestRunner
	screenshotQueue []capture
	fps             *fpsCounter
}

// NewStage creates a stage of the given logical size probing env for
// capability.
func NewStage(width, height int, env Environment) *Stage {
	return &Stage{
		Background:    Color{R: 0.06, G: 0.05, B: 0.07, A: 1},
		WheelStep:     defaultWheelStep,
		ScreenshotDir: defaultScreenshotDir,
		viewport:      NewViewport(float64(width), float64(height)),
		detector:      NewDetector(env, false),
		deviceScale:   1,
		pages:         make(map[string]*Page),
		fps:           newFPSCounter(),
	}
}

// Viewport returns the stage viewport.
func (s *Stage) Viewport() *Viewport { return s.viewport }

// Detector returns the capability detector.
func (s *Stage) Detector() *Detector { return s.detector }

// Page returns the mounted page, or nil.
func (s *Stage) Page() *Page { return s.page }

// SetDeviceScale overrides the device scale factor used for new frames.
func (s *Stage) SetDeviceScale(f float64) {
	if f > 0 {
		s.deviceScale = f
	}
}

// AddPage registers p for NavigateTo.
func (s *Stage) AddPage(p *Page) {
	s.pages[p.Name] = p
}

// NavigateTo navigates to a registered page by name.
func (s *Stage) NavigateTo(name string) error {
	p, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("drape: navigate: unknown page %q", name)
	}
	return s.Navigate(p)
}

// Start probes the capability detector and mounts the page requested
// before the loop began. Update calls it on the first tick; the graphics
// context does not exist earlier.
func (s *Stage) Start() error {
	if s.started {
		return nil
	}
	s.started = true
	if p := s.pending; p != nil {
		s.pending = nil
		return s.Navigate(p)
	}
	s.probe()
	return nil
}

// probe hands the current motion preference to the detector and
// re-queries it, so ReducedMotion set at any time applies to the next
// mount.
func (s *Stage) probe() {
	s.detector.SetReducedMotion(s.ReducedMotion)
	s.detector.Probe()
}

// Navigate unmounts the current page synchronously, resets scroll and
// mounts p. Navigating to the mounted page remounts it. Before Start the
// request is held and mounted by Start.
func (s *Stage) Navigate(p *Page) error {
	if !s.started {
		s.pending = p
		return nil
	}
	from := ""
	if s.page != nil {
		from = s.page.Name
		s.page.Unmount()
		s.page = nil
	}
	s.viewport.SetScroll(0)
	s.probe()
	if err := p.Mount(s); err != nil {
		return err
	}
	s.page = p
	Logger().Info("drape: navigated", "from", from, "to", p.Name)
	return nil
}

// Close unmounts the current page.
func (s *Stage) Close() {
	if s.page != nil {
		s.page.Unmount()
		s.page = nil
	}
}

// Update implements ebiten.Game.
func (s *Stage) Update() error {
	if err := s.Start(); err != nil {
		return err
	}
	dt := 1.0 / float64(ebiten.TPS())
	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	if !s.processInjectedInput() && s.testRunner == nil {
		s.processInput()
	}
	s.viewport.update(float32(dt))
	if s.page != nil {
		if s.pointerKnown {
			s.page.observePointer(s.pointerX, s.pointerY)
		}
		s.page.update(dt)
	}
	s.fps.update(dt)
	return nil
}

// processInput reads wheel, keyboard and pointer state.
func (s *Stage) processInput() {
	if _, wy := ebiten.Wheel(); wy != 0 {
		s.viewport.ScrollBy(-wy * s.WheelStep)
	}
	vh := s.viewport.Height
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		s.viewport.ScrollTo(s.viewport.ScrollY()+vh*0.9, pageScrollDuration, ease.OutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		s.viewport.ScrollTo(s.viewport.ScrollY()-vh*0.9, pageScrollDuration, ease.OutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		s.viewport.ScrollTo(0, pageScrollDuration, ease.OutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		s.viewport.ScrollTo(s.viewport.MaxScroll(), pageScrollDuration, ease.OutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		s.ShowDebug = !s.ShowDebug
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		s.viewport.ScrollBy(s.WheelStep / 6)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		s.viewport.ScrollBy(-s.WheelStep / 6)
	}

	var x, y float64
	x, y, s.touchBuf = cursorPosition(s.touchBuf)
	s.pointerX, s.pointerY = x, y
	s.pointerKnown = true
}

// Draw implements ebiten.Game.
func (s *Stage) Draw(screen *ebiten.Image) {
	screen.Fill(s.Background.toRGBA())
	if s.page != nil {
		s.page.draw(screen, &s.op)
	}
	if s.ShowDebug {
		s.drawDebug(screen)
	}
	s.flushScreenshots(screen)
}

func (s *Stage) drawDebug(screen *ebiten.Image) {
	vp := s.viewport
	name := ""
	engines := 0
	if s.page != nil {
		name = s.page.Name
		engines = len(s.page.Engines())
	}
	res := LiveResources()
	msg := fmt.Sprintf("%s\npage: %s  engines: %d\nscroll: %.0f / %.0f\ntier: %s\nres: g%d p%d b%d t%d",
		s.fps.text, name, engines, vp.ScrollY(), vp.MaxScroll(),
		s.detector.Capability().Tier, res.Geometries, res.Programs, res.Buffers, res.Textures)
	ebitenutil.DebugPrintAt(screen, msg, 8, 8)
}

// Layout implements ebiten.Game. Size changes resize the viewport and feed
// the capability detector.
func (s *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	if m := ebiten.Monitor(); m != nil {
		s.deviceScale = m.DeviceScaleFactor()
	}
	w, h := float64(outsideWidth), float64(outsideHeight)
	if w != s.viewport.Width || h != s.viewport.Height {
		s.viewport.SetSize(w, h)
	}
	s.detector.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

var _ ebiten.Game = (*Stage)(nil)
