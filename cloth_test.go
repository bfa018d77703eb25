package drape

import (
	"errors"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// stubShaders replaces the Kage compiler for the duration of a test. A nil
// shader is fine as long as the test never calls Draw.
func stubShaders(t *testing.T, err error) {
	t.Helper()
	prev := compileShader
	compileShader = func([]byte) (*ebiten.Shader, error) {
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
	t.Cleanup(func() { compileShader = prev })
}

// --- Deformation ---

func TestClothDeformReducedIsRestPose(t *testing.T) {
	cfg := smallConfig().Cloth
	rest := Vec3{X: 120, Y: 300}
	in := clothInputs{Time: 4.2, Scroll: 0.7, Pointer: Vec2{100, 250}, PointerInfluence: 1, Reduced: true}
	if got := clothDeform(&cfg, rest, 0.6, in); got != rest {
		t.Errorf("reduced deform = %v, want rest %v", got, rest)
	}
}

func TestClothDeformPinnedEdgeStill(t *testing.T) {
	cfg := smallConfig().Cloth
	rest := Vec3{X: 200, Y: 0}
	for _, tm := range []float64{0, 1.3, 7.9} {
		in := clothInputs{Time: tm, Pointer: Vec2{200, 0}, PointerInfluence: 1}
		got := clothDeform(&cfg, rest, 0, in)
		if got.X != rest.X || got.Z != rest.Z {
			t.Errorf("t=%v: pinned vertex moved to %v", tm, got)
		}
	}
}

func TestClothDeformIsPure(t *testing.T) {
	cfg := smallConfig().Cloth
	rest := Vec3{X: 333, Y: 410}
	in := clothInputs{Time: 2.5, Scroll: 0.4, Pointer: Vec2{300, 380}, PointerInfluence: 0.8}
	a := clothDeform(&cfg, rest, 0.73, in)
	b := clothDeform(&cfg, rest, 0.73, in)
	if a != b {
		t.Errorf("deform not deterministic: %v vs %v", a, b)
	}
}

func TestPointerRippleFiniteAtCenter(t *testing.T) {
	cfg := smallConfig().Cloth
	rest := Vec3{X: 50, Y: 50}
	for _, tm := range []float64{0, 0.25, 1, 3.7} {
		in := clothInputs{Time: tm, Pointer: Vec2{50, 50}, PointerInfluence: 1}
		got := pointerRipple(&cfg, rest, in, 1)
		if math.IsNaN(got) || math.IsInf(got, 0) || math.Abs(got) > cfg.RippleAmplitude {
			t.Errorf("t=%v: ripple at d=0 = %v, want |r| <= %v", tm, got, cfg.RippleAmplitude)
		}
	}
}

func TestPointerRippleDecays(t *testing.T) {
	cfg := smallConfig().Cloth
	in := clothInputs{Pointer: Vec2{0, 0}, PointerInfluence: 1}
	far := Vec3{X: 4000, Y: 0}
	if got := math.Abs(pointerRipple(&cfg, far, in, 1)); got > 1e-6 {
		t.Errorf("ripple far away = %v, want ~0", got)
	}
}

func TestPointerInfluenceZeroAtCenter(t *testing.T) {
	if got := pointerInfluence(Vec2{}); got != 0 {
		t.Errorf("pointerInfluence(center) = %v, want 0", got)
	}
	if got := pointerInfluence(Vec2{X: 0.9}); got != 1 {
		t.Errorf("pointerInfluence(edge) = %v, want 1", got)
	}
}

func TestFoldCompressionClamped(t *testing.T) {
	cfg := smallConfig().Cloth
	cfg.FoldCompression = 10
	if got := foldCompression(&cfg, 1); got != cfg.MinCompression {
		t.Errorf("foldCompression = %v, want MinCompression %v", got, cfg.MinCompression)
	}
	if got := foldCompression(&cfg, 0); got != 1 {
		t.Errorf("foldCompression(0) = %v, want 1", got)
	}
}

func TestFoldMonotonicAndContinuous(t *testing.T) {
	cfg := smallConfig().Cloth
	free := Vec3{X: cfg.Width / 2, Y: cfg.Height}
	prev := clothDeform(&cfg, free, 1, clothInputs{})
	const steps = 200
	for i := 1; i <= steps; i++ {
		s := float64(i) / steps
		got := clothDeform(&cfg, free, 1, clothInputs{Scroll: s})
		if got.Y > prev.Y+1e-9 {
			t.Fatalf("scroll %v: free edge Y rose from %v to %v", s, prev.Y, got.Y)
		}
		if got.Z > prev.Z+1e-9 {
			t.Fatalf("scroll %v: free edge Z moved forward from %v to %v", s, prev.Z, got.Z)
		}
		if math.Abs(got.Y-prev.Y) > cfg.Height*0.05 {
			t.Fatalf("scroll %v: jump of %v in free edge Y", s, got.Y-prev.Y)
		}
		prev = got
	}
}

func TestFoldNeverInvertsRows(t *testing.T) {
	cfg := smallConfig().Cloth
	for _, s := range []float64{0, 0.5, 1} {
		in := clothInputs{Scroll: s}
		prevY := math.Inf(-1)
		for r := 0; r <= cfg.Rows; r++ {
			pin := float64(r) / float64(cfg.Rows)
			y := clothDeform(&cfg, Vec3{Y: pin * cfg.Height}, pin, in).Y
			if y <= prevY {
				t.Errorf("scroll %v row %d: Y %v not below previous %v", s, r, y, prevY)
			}
			prevY = y
		}
	}
}

func TestNDCMapping(t *testing.T) {
	cfg := smallConfig().Cloth
	if got := ndcToPlane(&cfg, Vec2{-1, 1}); got != (Vec2{}) {
		t.Errorf("ndcToPlane(top-left) = %v, want origin", got)
	}
	if got := ndcToPlane(&cfg, Vec2{1, -1}); got != (Vec2{cfg.Width, cfg.Height}) {
		t.Errorf("ndcToPlane(bottom-right) = %v", got)
	}
	if got := ndcToUV(Vec2{}); got != (Vec2{0.5, 0.5}) {
		t.Errorf("ndcToUV(center) = %v", got)
	}
}

// --- Projection ---

func TestClothProjectionFlatPlane(t *testing.T) {
	p := clothProjection{
		bounds:   Rect{X: 10, Y: 20, Width: 200, Height: 100},
		width:    400,
		height:   200,
		distance: 1000,
	}
	if f := p.fit(); f != 0.5 {
		t.Fatalf("fit = %v, want 0.5", f)
	}
	x, y, d := p.project(Vec3{X: 0, Y: 0})
	if x != 10 || y != 20 || d != 0 {
		t.Errorf("project(origin) = (%v, %v, %v), want (10, 20, 0)", x, y, d)
	}
	// Z toward the viewer magnifies about the center.
	x, _, d = p.project(Vec3{X: 400, Y: 100, Z: 500})
	if x != 310 {
		t.Errorf("near vertex x = %v, want 310", x)
	}
	if d <= 0 {
		t.Errorf("near vertex depth = %v, want > 0", d)
	}
}

// --- Shading ---

func testUniforms(t *testing.T) clothUniforms {
	t.Helper()
	cfg := smallConfig().Cloth
	pal, err := cfg.Palette.parse()
	if err != nil {
		t.Fatal(err)
	}
	return clothUniforms{
		Opacity:    1,
		FadeStart:  cfg.FadeStart,
		WeaveScale: Vec2{cfg.WeaveDensity, cfg.WeaveDensity},
		RimPower:   cfg.RimPower,
		Palette:    pal,
		Pointer:    Vec2{0.5, 0.5},
	}
}

func TestShadeClothScrollFade(t *testing.T) {
	u := testUniforms(t)
	n := Vec3{Z: 1}
	uv := Vec2{0.3, 0.6}

	u.Scroll = 0
	if got := shadeCloth(u, uv, n); got.A != 1 {
		t.Errorf("alpha at scroll 0 = %v, want 1", got.A)
	}
	u.Scroll = 1
	got := shadeCloth(u, uv, n)
	if got.A != 0 || got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("shade at scroll 1 = %+v, want transparent", got)
	}
}

func TestShadeClothPremultiplied(t *testing.T) {
	u := testUniforms(t)
	u.Opacity = 0.5
	for _, uv := range []Vec2{{0, 0}, {0.5, 0.5}, {0.9, 0.1}} {
		c := shadeCloth(u, uv, Vec3{X: 0.6, Z: 0.8})
		if c.R > c.A+1e-12 || c.G > c.A+1e-12 || c.B > c.A+1e-12 {
			t.Errorf("uv %v: channel exceeds alpha: %+v", uv, c)
		}
	}
}

func TestShadeClothRimBrightensGrazing(t *testing.T) {
	u := testUniforms(t)
	u.Pointer = Vec2{-5, -5}
	uv := Vec2{0.25, 0.25}
	facing := shadeCloth(u, uv, Vec3{Z: 1})
	grazing := shadeCloth(u, uv, Vec3{X: 0.995, Z: 0.0999})
	lum := func(c Color) float64 { return c.R + c.G + c.B }
	if lum(grazing) <= lum(facing) {
		t.Errorf("grazing %v should be brighter than facing %v", lum(grazing), lum(facing))
	}
}

func TestWeaveMaskRange(t *testing.T) {
	scale := Vec2{90, 60}
	for i := 0; i < 50; i++ {
		for j := 0; j < 50; j++ {
			uv := Vec2{float64(i) / 49, float64(j) / 49}
			m := weaveMask(uv, scale)
			if m < 0 || m > 1 {
				t.Fatalf("weaveMask(%v) = %v, want [0, 1]", uv, m)
			}
		}
	}
}

func TestFacetNormal(t *testing.T) {
	if got := facetNormal(Vec3{}, Vec3{}, Vec3{}); got != (Vec3{Z: 1}) {
		t.Errorf("degenerate facet = %v, want +Z", got)
	}
	// Winding that yields -Z is flipped to face the viewer.
	got := facetNormal(Vec3{}, Vec3{Y: 1}, Vec3{X: 1})
	if got != (Vec3{Z: 1}) {
		t.Errorf("flat facet = %v, want +Z", got)
	}
	tilted := facetNormal(Vec3{}, Vec3{X: 1, Z: 1}, Vec3{Y: 1})
	if tilted.Z <= 0 || math.Abs(tilted.Len()-1) > 1e-9 {
		t.Errorf("tilted facet = %v, want unit with Z > 0", tilted)
	}
}

// --- ClothSurface ---

func TestClothSurfaceMesh(t *testing.T) {
	stubShaders(t, nil)
	base := LiveResources()
	cfg := smallConfig().Cloth
	c, err := newClothSurface(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	wantVerts := (cfg.Cols + 1) * (cfg.Rows + 1)
	if got := len(c.Vertices()); got != wantVerts {
		t.Errorf("vertices = %d, want %d", got, wantVerts)
	}
	if got := len(c.buf.Indices); got != cfg.Cols*cfg.Rows*6 {
		t.Errorf("indices = %d, want %d", got, cfg.Cols*cfg.Rows*6)
	}
	live := LiveResources()
	if live.Geometries != base.Geometries+1 || live.Programs != base.Programs+1 {
		t.Errorf("resources = %+v, want one geometry and one program over %+v", live, base)
	}
	first := &c.Vertices()[0]

	c.Update(SceneState{TimeSeconds: 1.5, ScrollProgress: 0.3})
	if &c.Vertices()[0] != first {
		t.Error("vertex buffer reallocated on Update")
	}

	c.Dispose()
	c.Dispose()
	if got := LiveResources(); got != base {
		t.Errorf("after Dispose = %+v, want %+v", got, base)
	}
}

func TestClothSurfaceUpdateDeterministic(t *testing.T) {
	stubShaders(t, nil)
	cfg := smallConfig().Cloth
	a, _ := newClothSurface(cfg, false)
	b, _ := newClothSurface(cfg, false)
	defer a.Dispose()
	defer b.Dispose()

	s := SceneState{TimeSeconds: 3.1, ScrollProgress: 0.45, PointerNDC: Vec2{0.4, -0.2}}
	a.Update(s)
	b.Update(s)
	for row := 0; row <= cfg.Rows; row++ {
		for col := 0; col <= cfg.Cols; col++ {
			if a.Position(col, row) != b.Position(col, row) {
				t.Fatalf("vertex (%d, %d) differs", col, row)
			}
		}
	}
}

func TestClothSurfaceReducedMotion(t *testing.T) {
	stubShaders(t, nil)
	cfg := smallConfig().Cloth
	c, _ := newClothSurface(cfg, false)
	defer c.Dispose()

	c.Update(SceneState{TimeSeconds: 9, ScrollProgress: 0.8, PointerNDC: Vec2{0.7, 0.7}, ReducedMotion: true})
	if got, want := c.Position(cfg.Cols, cfg.Rows), (Vec3{X: cfg.Width, Y: cfg.Height}); got != want {
		t.Errorf("reduced free corner = %v, want rest %v", got, want)
	}
	if c.u.Time != 0 {
		t.Errorf("shader time = %v, want frozen at 0", c.u.Time)
	}
}

func TestClothSurfaceCustomAttributes(t *testing.T) {
	stubShaders(t, nil)
	cfg := smallConfig().Cloth
	c, _ := newClothSurface(cfg, false)
	defer c.Dispose()

	v := c.Vertices()[(cfg.Cols+1)*cfg.Rows+cfg.Cols]
	if v.Custom0 != 1 || v.Custom1 != 1 || v.Custom3 != 1 {
		t.Errorf("free corner custom = (%v, %v, _, %v), want uv (1, 1) pin 1", v.Custom0, v.Custom1, v.Custom3)
	}
	v = c.Vertices()[0]
	if v.Custom0 != 0 || v.Custom1 != 0 || v.Custom3 != 0 {
		t.Errorf("pinned corner custom = (%v, %v, _, %v), want zeros", v.Custom0, v.Custom1, v.Custom3)
	}
}

func TestClothSurfaceShadeFades(t *testing.T) {
	stubShaders(t, nil)
	c, _ := newClothSurface(smallConfig().Cloth, false)
	defer c.Dispose()

	c.Update(SceneState{ScrollProgress: 0})
	if a := c.Shade(2, 2).A; a != 1 {
		t.Errorf("alpha at scroll 0 = %v, want 1", a)
	}
	c.Update(SceneState{ScrollProgress: 1})
	if a := c.Shade(2, 2).A; a != 0 {
		t.Errorf("alpha at scroll 1 = %v, want 0", a)
	}
}

func TestClothSurfaceCompileFailure(t *testing.T) {
	stubShaders(t, errors.New("syntax error"))
	base := LiveResources()
	_, err := newClothSurface(smallConfig().Cloth, false)
	if !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("err = %v, want ErrShaderCompile", err)
	}
	if got := LiveResources(); got != base {
		t.Errorf("resources leaked on failure: %+v, want %+v", got, base)
	}
}
