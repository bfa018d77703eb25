package drape

import (
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
)

// moteTextureSize is the edge length of the soft mote sprite in pixels.
const moteTextureSize = 32

// particleBase is generated once at mount. Positions are normalized to the
// field bounds so a resize never regenerates the field.
type particleBase struct {
	pos         Vec3 // X, Y in [0, 1] of the field; Z in [-1, 1] depth
	speed       float64
	phase       float64
	scale       float64
	driftRadius float64
}

// ParticleField is a drifting cloud of dust motes. Every live transform is
// written into one shared InstanceBuffer; the buffer is marked dirty once
// per Update and expanded into quads at Draw.
type ParticleField struct {
	cfg     ParticleConfig
	bases   []particleBase
	inst    *InstanceBuffer
	alpha   []float32
	quads   *VertexBuffer
	mote    *ownedImage
	pointer *PointerTracker
	color   Color
	bounds  Rect
	opacity float64
	op      ebiten.DrawTrianglesOptions

	disposed bool
}

// newParticleField allocates every buffer for count particles.
func newParticleField(count int, cfg ParticleConfig, antialias bool) (*ParticleField, error) {
	col, err := parseHexColor(cfg.Color)
	if err != nil {
		return nil, err
	}
	f := &ParticleField{
		cfg:     cfg,
		bases:   generateParticles(count, cfg),
		inst:    newInstanceBuffer(count),
		alpha:   make([]float32, count),
		quads:   newVertexBuffer(count*4, count*6),
		mote:    newMoteTexture(moteTextureSize),
		pointer: NewPointerTracker(Rect{}, cfg.PointerSmoothing),
		color:   col,
		opacity: 1,
	}
	f.op.AntiAlias = antialias
	f.op.Blend = cfg.BlendMode.EbitenBlend()
	f.buildIndices()
	return f, nil
}

// generateParticles derives the base state from a single seeded PCG stream.
func generateParticles(count int, cfg ParticleConfig) []particleBase {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	out := make([]particleBase, count)
	for i := range out {
		out[i] = particleBase{
			pos: Vec3{
				X: rng.Float64(),
				Y: rng.Float64(),
				Z: rng.Float64()*2 - 1,
			},
			speed:       cfg.Speed.Sample(rng),
			phase:       rng.Float64() * 2 * math.Pi,
			scale:       cfg.Size.Sample(rng),
			driftRadius: cfg.DriftRadius.Sample(rng),
		}
	}
	return out
}

// newMoteTexture builds a premultiplied white disc with a smooth falloff.
func newMoteTexture(size int) *ownedImage {
	img := newOwnedImage(size, size)
	pix := make([]byte, size*size*4)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c) / c
			a := 1 - smoothstep(0, 1, d)
			v := byte(a*a*255 + 0.5)
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, v
		}
	}
	img.img.WritePixels(pix)
	return img
}

func (f *ParticleField) buildIndices() {
	inds := f.quads.Indices
	for i := range f.bases {
		v := uint16(i * 4)
		ii := i * 6
		inds[ii+0] = v
		inds[ii+1] = v + 1
		inds[ii+2] = v + 2
		inds[ii+3] = v + 2
		inds[ii+4] = v + 1
		inds[ii+5] = v + 3
	}
}

// Name identifies the producer in debug output.
func (f *ParticleField) Name() string { return "particles" }

// Count returns the number of particles.
func (f *ParticleField) Count() int { return len(f.bases) }

// SetBounds sets the field rectangle in target pixels.
func (f *ParticleField) SetBounds(r Rect) { f.bounds = r }

// SetOpacity sets the entrance opacity.
func (f *ParticleField) SetOpacity(a float64) { f.opacity = clamp01(a) }

// Instances exposes the shared transform buffer.
func (f *ParticleField) Instances() *InstanceBuffer { return f.inst }

// particleFade is the visibility multiplier for scroll progress: 1 at rest,
// reaching exactly 0 at threshold and staying there.
func particleFade(scroll, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return 1 - smoothstep(threshold*0.4, threshold, scroll)
}

// particleRise is the upward travel for scroll progress, saturating at
// threshold.
func particleRise(scroll, threshold, distance float64) float64 {
	if threshold <= 0 {
		return distance
	}
	return distance * smoothstep(0, 1, clamp01(scroll/threshold))
}

// particleTransform evaluates particle b for one frame. pointer is the
// smoothed pointer in field pixels; influence scales the attraction.
func particleTransform(cfg *ParticleConfig, b *particleBase, bounds Rect, s SceneState, pointer Vec2, influence float64) (x, y, scale, alpha float64) {
	x = bounds.X + b.pos.X*bounds.Width
	y = bounds.Y + b.pos.Y*bounds.Height
	depth := 0.75 + 0.25*b.pos.Z
	scale = b.scale * depth
	if s.ReducedMotion {
		return x, y, scale, 1
	}

	t := s.TimeSeconds
	x += b.driftRadius * math.Sin(t*b.speed+b.phase)
	y += b.driftRadius * 0.6 * math.Cos(t*b.speed*0.8+b.phase*1.3)

	if influence > 0 && cfg.Attraction > 0 {
		dx, dy := pointer.X-x, pointer.Y-y
		d := math.Hypot(dx, dy)
		if d > 1e-6 {
			reach := 0.35 * max(bounds.Width, bounds.Height)
			pull := cfg.Attraction * influence * math.Exp(-d/max(reach, 1)) * depth
			pull = min(pull, d)
			x += dx / d * pull
			y += dy / d * pull
		}
	}

	scroll := float64(s.ScrollProgress)
	y -= particleRise(scroll, cfg.FadeThreshold, cfg.RiseDistance) * (0.6 + 0.4*depth)

	fade := particleFade(scroll, cfg.FadeThreshold)
	twinkle := 0.75 + 0.25*math.Sin(t*b.speed*3+b.phase*2)
	return x, y, scale * twinkle * fade, fade
}

// Update writes every particle transform into the instance buffer.
func (f *ParticleField) Update(s SceneState) {
	if f.disposed {
		return
	}
	f.pointer.SetTarget(s.PointerNDC)
	smoothed := f.pointer.Step()
	ptr := Vec2{
		X: f.bounds.X + (smoothed.X+1)/2*f.bounds.Width,
		Y: f.bounds.Y + (1-smoothed.Y)/2*f.bounds.Height,
	}
	influence := pointerInfluence(smoothed)
	for i := range f.bases {
		x, y, scale, alpha := particleTransform(&f.cfg, &f.bases[i], f.bounds, s, ptr, influence)
		writeInstance(f.inst.Slot(i), x, y, scale)
		f.alpha[i] = float32(alpha * f.opacity)
	}
	f.inst.MarkDirty()
}

// writeInstance stores a uniform scale plus translation as a column-major
// 4x4 matrix.
func writeInstance(m []float32, x, y, scale float64) {
	clear(m)
	s := float32(scale)
	m[0] = s
	m[5] = s
	m[10] = s
	m[12] = float32(x)
	m[13] = float32(y)
	m[15] = 1
}

// instancePosition reads back the translation and scale of slot i.
func instancePosition(m []float32) (x, y, scale float64) {
	return float64(m[12]), float64(m[13]), float64(m[0])
}

// Draw expands the instances into quads and submits them in one call.
func (f *ParticleField) Draw(dst *ebiten.Image) {
	if f.disposed {
		return
	}
	if f.inst.Dirty() {
		f.expandQuads()
		f.inst.clearDirty()
	}
	dst.DrawTriangles(f.quads.Vertices, f.quads.Indices, f.mote.img, &f.op)
}

func (f *ParticleField) expandQuads() {
	verts := f.quads.Vertices
	const ts = float32(moteTextureSize)
	for i := range f.bases {
		x, y, scale := instancePosition(f.inst.Slot(i))
		h := float32(scale * 2)
		a := f.alpha[i]
		r, g, b := float32(f.color.R)*a, float32(f.color.G)*a, float32(f.color.B)*a
		cx, cy := float32(x), float32(y)
		v := verts[i*4 : i*4+4 : i*4+4]
		v[0] = ebiten.Vertex{DstX: cx - h, DstY: cy - h, SrcX: 0, SrcY: 0, ColorR: r, ColorG: g, ColorB: b, ColorA: a}
		v[1] = ebiten.Vertex{DstX: cx + h, DstY: cy - h, SrcX: ts, SrcY: 0, ColorR: r, ColorG: g, ColorB: b, ColorA: a}
		v[2] = ebiten.Vertex{DstX: cx - h, DstY: cy + h, SrcX: 0, SrcY: ts, ColorR: r, ColorG: g, ColorB: b, ColorA: a}
		v[3] = ebiten.Vertex{DstX: cx + h, DstY: cy + h, SrcX: ts, SrcY: ts, ColorR: r, ColorG: g, ColorB: b, ColorA: a}
	}
}

// Dispose releases the instance buffer, quad buffer and mote texture.
func (f *ParticleField) Dispose() {
	if f.disposed {
		return
	}
	f.disposed = true
	f.inst.Dispose()
	f.quads.Dispose()
	f.mote.Dispose()
}
