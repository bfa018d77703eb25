package drape

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// clothInputs is everything the deformation reads. It is derived from a
// SceneState and nothing else, so two evaluations with equal inputs produce
// equal vertices.
type clothInputs struct {
	Time    float64
	Scroll  float64
	Pointer Vec2 // plane-local pixels
	// PointerInfluence scales the ripple; a pointer resting at the field
	// center produces no ripple.
	PointerInfluence float64
	Reduced          bool
}

// --- Deformation fields ---

// gravityDrape pulls the free edge down and forward, proportional to pin^2.
func gravityDrape(cfg *ClothConfig, pin float64) (dy, dz float64) {
	w := pin * pin
	return cfg.Gravity * w, cfg.GravityForward * w
}

// windSway is a low-frequency product of sines plus a finer secondary
// ripple, scaled by pin weight.
func windSway(cfg *ClothConfig, rest Vec3, t, pin float64) (dx, dz float64) {
	f := cfg.WindFrequency
	s := cfg.WindSpeed
	primary := math.Sin(rest.X*f+t*s) * math.Cos(rest.Y*f*0.7+t*s*0.8)
	secondary := math.Sin(rest.X*f*2.7-t*s*1.9) * math.Sin(rest.Y*f*2.1+t*s*1.3) * cfg.WindDetail
	a := cfg.WindAmplitude * pin
	return a * 0.25 * primary, a * (primary + secondary)
}

// pointerRipple is a radial traveling wave centered on the projected
// pointer. At distance 0 the exponential is 1 and the sine is bounded, so
// the amplitude stays finite.
func pointerRipple(cfg *ClothConfig, rest Vec3, in clothInputs, pin float64) float64 {
	dx := rest.X - in.Pointer.X
	dy := rest.Y - in.Pointer.Y
	d := math.Sqrt(dx*dx + dy*dy)
	wave := math.Sin(d*cfg.RippleFrequency - in.Time*cfg.RippleSpeed)
	return cfg.RippleAmplitude * in.PointerInfluence * wave * math.Exp(-d*cfg.RippleDecay) * pin
}

// foldAmount maps scroll progress to fold strength. Monotonic and continuous
// on [0, 1] with zero slope at both ends.
func foldAmount(scroll float64) float64 {
	return smoothstep(0, 1, scroll)
}

// foldCompression is the vertical scale at the given fold strength, clamped
// so the mesh can never invert.
func foldCompression(cfg *ClothConfig, fold float64) float64 {
	return max(1-cfg.FoldCompression*fold, cfg.MinCompression)
}

// clothDeform returns the displaced position of a rest vertex with pin
// weight pin (0 at the pinned top edge, 1 at the free edge).
func clothDeform(cfg *ClothConfig, rest Vec3, pin float64, in clothInputs) Vec3 {
	if in.Reduced {
		return rest
	}
	gy, gz := gravityDrape(cfg, pin)
	wx, wz := windSway(cfg, rest, in.Time, pin)
	rz := pointerRipple(cfg, rest, in, pin)

	fold := foldAmount(in.Scroll)
	y := (rest.Y + gy - cfg.FoldLift*fold*pin*pin) * foldCompression(cfg, fold)

	return Vec3{
		X: rest.X + wx,
		Y: y,
		Z: rest.Z + gz + wz + rz - cfg.FoldBack*fold*pin,
	}
}

// pointerInfluence is 0 with the pointer at the center of the field and 1
// once it is a third of the way to an edge.
func pointerInfluence(ndc Vec2) float64 {
	return smoothstep(0, 0.35, math.Hypot(ndc.X, ndc.Y))
}

// clothInputsFor derives deformation inputs from a frame snapshot and the
// ripple tracker's smoothed pointer.
func clothInputsFor(cfg *ClothConfig, s SceneState, pointer Vec2) clothInputs {
	return clothInputs{
		Time:             s.TimeSeconds,
		Scroll:           float64(s.ScrollProgress),
		Pointer:          ndcToPlane(cfg, pointer),
		PointerInfluence: pointerInfluence(pointer),
		Reduced:          s.ReducedMotion,
	}
}

// ndcToPlane projects a pointer in NDC onto the undeformed plane.
func ndcToPlane(cfg *ClothConfig, ndc Vec2) Vec2 {
	return Vec2{
		X: (ndc.X + 1) / 2 * cfg.Width,
		Y: (1 - ndc.Y) / 2 * cfg.Height,
	}
}

// ndcToUV maps a pointer in NDC to fabric UV space.
func ndcToUV(ndc Vec2) Vec2 {
	return Vec2{X: (ndc.X + 1) / 2, Y: (1 - ndc.Y) / 2}
}

// --- Projection ---

// clothProjection maps plane-local positions into a target rectangle with a
// fixed perspective about the plane's center.
type clothProjection struct {
	bounds   Rect
	width    float64
	height   float64
	distance float64
}

// fit returns the uniform scale that fits the plane into bounds.
func (p clothProjection) fit() float64 {
	if p.width <= 0 || p.height <= 0 {
		return 1
	}
	return min(p.bounds.Width/p.width, p.bounds.Height/p.height)
}

// project returns target-space pixels and the depth in target pixels.
func (p clothProjection) project(v Vec3) (x, y, depth float64) {
	s := p.distance / (p.distance - v.Z)
	f := p.fit()
	c := p.bounds.Center()
	x = c.X + (v.X-p.width/2)*s*f
	y = c.Y + (v.Y-p.height/2)*s*f
	return x, y, v.Z * s * f
}

// --- ClothSurface ---

// ClothSurface renders one tessellated plane as draped woven fabric. It owns
// exactly one vertex buffer and one shader program, both created at mount
// and disposed once.
type ClothSurface struct {
	cfg     ClothConfig
	pal     palette
	buf     *VertexBuffer
	program *shaderProgram
	rest    []Vec3
	uv      []Vec2
	pos     []Vec3 // deformed positions, overwritten every Update

	pointer *PointerTracker
	proj    clothProjection
	opacity float64

	uniforms   map[string]any
	u          clothUniforms
	pointerF32 [2]float32
	op         ebiten.DrawTrianglesShaderOptions
	disposed   bool
}

// newClothSurface compiles the shader and builds the mesh. A compile failure
// is returned wrapped in ErrShaderCompile before any geometry is created.
func newClothSurface(cfg ClothConfig, antialias bool) (*ClothSurface, error) {
	pal, err := cfg.Palette.parse()
	if err != nil {
		return nil, err
	}
	src := cfg.ShaderSource
	if src == "" {
		src = clothShaderSrc
	}
	program, err := newShaderProgram([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("%w: cloth: %v", ErrShaderCompile, err)
	}

	c := &ClothSurface{
		cfg:     cfg,
		pal:     pal,
		program: program,
		pointer: NewPointerTracker(Rect{}, cfg.PointerSmoothing),
		opacity: 1,
		proj: clothProjection{
			bounds:   Rect{Width: cfg.Width, Height: cfg.Height},
			width:    cfg.Width,
			height:   cfg.Height,
			distance: cfg.CameraDistance,
		},
	}
	c.buildMesh()
	c.initUniforms(antialias)
	return c, nil
}

// buildMesh allocates the grid once. Vertices = (cols+1) * (rows+1).
func (c *ClothSurface) buildMesh() {
	cols, rows := c.cfg.Cols, c.cfg.Rows
	vcols := cols + 1
	vrows := rows + 1
	numVerts := vcols * vrows

	c.buf = newVertexBuffer(numVerts, cols*rows*6)
	c.rest = make([]Vec3, numVerts)
	c.uv = make([]Vec2, numVerts)
	c.pos = make([]Vec3, numVerts)

	cellW := c.cfg.Width / float64(cols)
	cellH := c.cfg.Height / float64(rows)
	for r := 0; r < vrows; r++ {
		for col := 0; col < vcols; col++ {
			idx := r*vcols + col
			c.rest[idx] = Vec3{X: float64(col) * cellW, Y: float64(r) * cellH}
			c.uv[idx] = Vec2{X: float64(col) / float64(cols), Y: float64(r) / float64(rows)}
			c.pos[idx] = c.rest[idx]
		}
	}

	inds := c.buf.Indices
	ii := 0
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			tl := uint16(r*vcols + col)
			tr := tl + 1
			bl := uint16((r+1)*vcols + col)
			br := bl + 1
			inds[ii+0] = tl
			inds[ii+1] = bl
			inds[ii+2] = tr
			inds[ii+3] = tr
			inds[ii+4] = bl
			inds[ii+5] = br
			ii += 6
		}
	}
	c.writeVertices()
}

func (c *ClothSurface) initUniforms(antialias bool) {
	cfg := &c.cfg
	c.u = clothUniforms{
		Opacity:    1,
		FadeStart:  cfg.FadeStart,
		WeaveScale: Vec2{X: cfg.WeaveDensity, Y: cfg.WeaveDensity * cfg.Height / cfg.Width},
		RimPower:   cfg.RimPower,
		Palette:    c.pal,
		Pointer:    Vec2{X: 0.5, Y: 0.5},
	}
	c.uniforms = map[string]any{
		"Time":       float32(0),
		"Scroll":     float32(0),
		"Pointer":    c.pointerF32[:],
		"Opacity":    float32(1),
		"FadeStart":  float32(cfg.FadeStart),
		"WeaveScale": []float32{float32(c.u.WeaveScale.X), float32(c.u.WeaveScale.Y)},
		"RimPower":   float32(cfg.RimPower),
		"BaseA":      rgb32(c.pal.baseA),
		"BaseB":      rgb32(c.pal.baseB),
		"Thread":     rgb32(c.pal.thread),
		"Highlight":  rgb32(c.pal.highlight),
	}
	c.op.Uniforms = c.uniforms
	c.op.AntiAlias = antialias
}

func rgb32(c Color) []float32 {
	return []float32{float32(c.R), float32(c.G), float32(c.B)}
}

// Name identifies the producer in debug output.
func (c *ClothSurface) Name() string { return "cloth" }

// Grid returns the tessellation in quads.
func (c *ClothSurface) Grid() (cols, rows int) { return c.cfg.Cols, c.cfg.Rows }

// SetBounds sets the target-space rectangle the plane is fitted into.
func (c *ClothSurface) SetBounds(r Rect) {
	c.proj.bounds = r
}

// SetOpacity sets the entrance opacity multiplied into the shader alpha.
func (c *ClothSurface) SetOpacity(a float64) {
	c.opacity = clamp01(a)
}

// Update deforms every vertex from the frame snapshot and writes the shared
// vertex buffer in place.
func (c *ClothSurface) Update(s SceneState) {
	if c.disposed {
		return
	}
	c.pointer.SetTarget(s.PointerNDC)
	smoothed := c.pointer.Step()
	if s.ReducedMotion {
		smoothed = Vec2{}
		c.pointer.Reset(smoothed)
	}
	in := clothInputsFor(&c.cfg, s, smoothed)
	for i, rest := range c.rest {
		c.pos[i] = clothDeform(&c.cfg, rest, c.uv[i].Y, in)
	}
	c.writeVertices()

	c.u.Time = s.TimeSeconds
	if s.ReducedMotion {
		c.u.Time = 0
	}
	c.u.Scroll = float64(s.ScrollProgress)
	c.u.Pointer = ndcToUV(smoothed)
	c.u.Opacity = c.opacity
	c.uniforms["Time"] = float32(c.u.Time)
	c.uniforms["Scroll"] = float32(c.u.Scroll)
	c.pointerF32[0] = float32(c.u.Pointer.X)
	c.pointerF32[1] = float32(c.u.Pointer.Y)
	c.uniforms["Opacity"] = float32(c.u.Opacity)
}

// writeVertices projects pos into the vertex buffer. The attribute layout
// must match clothShaderSrc.
func (c *ClothSurface) writeVertices() {
	verts := c.buf.Vertices
	for i, p := range c.pos {
		x, y, depth := c.proj.project(p)
		v := &verts[i]
		v.DstX = float32(x)
		v.DstY = float32(y)
		v.SrcX = 0
		v.SrcY = 0
		v.ColorR, v.ColorG, v.ColorB, v.ColorA = 1, 1, 1, 1
		v.Custom0 = float32(c.uv[i].X)
		v.Custom1 = float32(c.uv[i].Y)
		v.Custom2 = float32(depth)
		v.Custom3 = float32(c.uv[i].Y)
	}
}

// Draw submits the mesh with the cloth shader.
func (c *ClothSurface) Draw(dst *ebiten.Image) {
	if c.disposed || c.program == nil {
		return
	}
	dst.DrawTrianglesShader(c.buf.Vertices, c.buf.Indices, c.program.shader, &c.op)
}

// Dispose releases the mesh and shader exactly once.
func (c *ClothSurface) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.buf.Dispose()
	c.program.Dispose()
}

// Position returns the deformed plane-local position of grid vertex
// (col, row) as of the last Update.
func (c *ClothSurface) Position(col, row int) Vec3 {
	return c.pos[row*(c.cfg.Cols+1)+col]
}

// Vertices exposes the owned vertex buffer. Callers must not retain it past
// Dispose.
func (c *ClothSurface) Vertices() []ebiten.Vertex {
	return c.buf.Vertices
}

// Shade evaluates the CPU mirror of the fragment shader for the triangle
// containing grid cell (col, row), using the uniforms of the last Update.
func (c *ClothSurface) Shade(col, row int) Color {
	vcols := c.cfg.Cols + 1
	i0 := row*vcols + col
	a := c.projected(i0)
	b := c.projected(i0 + vcols)
	d := c.projected(i0 + 1)
	n := facetNormal(a, b, d)
	uv := Vec2{
		X: (c.uv[i0].X + c.uv[i0+1].X) / 2,
		Y: (c.uv[i0].Y + c.uv[i0+vcols].Y) / 2,
	}
	return shadeCloth(c.u, uv, n)
}

func (c *ClothSurface) projected(i int) Vec3 {
	x, y, z := c.proj.project(c.pos[i])
	return Vec3{x, y, z}
}
