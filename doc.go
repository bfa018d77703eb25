// Package drape is a scroll-reactive fabric effects engine for [Ebitengine].
//
// Drape renders a draped, woven cloth surface with loose threads and
// drifting dust motes behind a storefront-style scrolling page. The cloth
// sways in the wind, ripples under the pointer and folds away as the page
// scrolls. Page elements reveal or scrub in step with scroll through a
// small timeline registry.
//
// # Quick start
//
// Build a [Stage], register pages, navigate, and hand the stage to [Run]:
//
//	stage := drape.NewStage(1280, 800, drape.EbitenEnvironment{})
//	stage.AddPage(drape.NewPage("home", func(p *drape.Page) error {
//		hero := drape.NewElement("hero", drape.Rect{Width: 1280, Height: 1200}, drape.Color{A: 1})
//		p.Root().AddChild(hero)
//		_, err := p.Effect(hero, drape.DefaultConfig(drape.TierDesktop))
//		return err
//	}))
//	if err := stage.NavigateTo("home"); err != nil {
//		log.Fatal(err)
//	}
//	drape.Run(stage, drape.RunConfig{Title: "Shop"})
//
// # Engine
//
// [Mount] consults the capability [Detector] and builds three producers: a
// [ClothSurface] drawn with a Kage shader, a [StrandSystem] and a
// [ParticleField]. A [FrameScheduler] snapshots the engine's [SignalCell]
// once per tick into a [SceneState] and feeds that same snapshot to every
// producer in a fixed order. When the effect is disabled Mount returns
// [ErrDisabled] and callers show [RenderPoster] instead.
//
// [Engine.Unmount] cancels the frame loop, then reverts scroll transitions,
// then disposes every GPU resource. [LiveResources] reports what is still
// allocated.
//
// # Signals
//
// Input never touches a producer directly. A [ScrollTracker] writes
// section progress, the stage writes the raw pointer, the detector writes
// the device tier. Producers smooth the pointer themselves with a
// [PointerTracker].
//
// # Timelines
//
// [Choreographer.Register] binds an [Element] to a [TriggerRange]. In
// [ModeScrub] the element follows scroll both ways; in [ModeOnceOnEnter] a
// tween starts the first time the range is entered. [Choreographer.Revert]
// restores the element's state from before registration.
//
// # Configuration
//
// [DefaultConfig] returns per-tier defaults; [LoadConfig] overlays JSON.
// Palette colors are hex strings.
//
// # Logging
//
// Drape is silent by default. Install a [log/slog] logger with [SetLogger].
//
// # Automated testing
//
// [LoadTestScript] parses a JSON list of steps (scroll, scrollTo, pointer,
// sweep, wait, navigate, anchor, screenshot) that a [Stage] replays through
// synthetic input:
//
//	{"steps": [
//	  {"action": "pointer", "x": 640, "y": 300},
//	  {"action": "scroll", "dy": 900, "frames": 30},
//	  {"action": "screenshot", "label": "folded"}
//	]}
//
// [Ebitengine]: https://ebitengine.org
package drape
