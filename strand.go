package drape

import (
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
)

// threadStrand is the immutable base state of one loose thread. Offsets are
// relative to the anchor on the cloth's free edge.
type threadStrand struct {
	anchorU   float64 // 0..1 along the free edge
	base      []Vec3
	speed     float64
	phase     float64
	amplitude float64
}

// StrandSystem draws loose threads hanging from the cloth's free edge. All
// strands share one ribbon buffer, allocated at mount and overwritten every
// frame.
type StrandSystem struct {
	cfg      StrandConfig
	cloth    ClothConfig
	strands  []threadStrand
	buf      *VertexBuffer
	points   []Vec3 // scratch, one strand at a time
	screen   []Vec2
	color    Color
	proj     clothProjection
	opacity  float64
	op       ebiten.DrawTrianglesOptions
	disposed bool
}

// newStrandSystem generates count strands. It returns nil when the subsystem
// is disabled: count is zero, or the tier is mobile.
func newStrandSystem(count int, tier DeviceTier, cfg StrandConfig, cloth ClothConfig, antialias bool) (*StrandSystem, error) {
	if count <= 0 || tier == TierMobile {
		return nil, nil
	}
	col, err := parseHexColor(cfg.Color)
	if err != nil {
		return nil, err
	}
	n := max(cfg.Points, 2)
	s := &StrandSystem{
		cfg:     cfg,
		cloth:   cloth,
		strands: make([]threadStrand, count),
		buf:     newVertexBuffer(count*n*2, count*(n-1)*6),
		points:  make([]Vec3, n),
		screen:  make([]Vec2, n),
		color:   col,
		opacity: 1,
		proj: clothProjection{
			bounds:   Rect{Width: cloth.Width, Height: cloth.Height},
			width:    cloth.Width,
			height:   cloth.Height,
			distance: cloth.CameraDistance,
		},
	}
	s.op.AntiAlias = antialias
	for i := range s.strands {
		s.strands[i] = generateStrand(cfg, n, i, count)
	}
	s.buildIndices(n)
	return s, nil
}

// generateStrand builds strand i of count from its own PCG stream, so a
// strand's shape depends only on the seed and its index.
func generateStrand(cfg StrandConfig, n, i, count int) threadStrand {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)+1))
	slot := 1 / float64(count)
	st := threadStrand{
		anchorU:   clamp01((float64(i)+0.5)*slot + (rng.Float64()-0.5)*slot*0.6),
		base:      make([]Vec3, n),
		speed:     cfg.Speed.Sample(rng),
		phase:     rng.Float64() * 2 * math.Pi,
		amplitude: cfg.Amplitude.Sample(rng),
	}
	length := cfg.Length * (0.65 + 0.35*rng.Float64())
	curl := (rng.Float64() - 0.5) * length * 0.25
	for j := range st.base {
		t := float64(j) / float64(n-1)
		st.base[j] = Vec3{
			X: curl * t * t,
			Y: length * t,
			Z: (rng.Float64() - 0.5) * 4 * t,
		}
	}
	return st
}

func (s *StrandSystem) buildIndices(n int) {
	inds := s.buf.Indices
	ii := 0
	for k := range s.strands {
		first := k * n * 2
		for i := 0; i < n-1; i++ {
			v := uint16(first + i*2)
			inds[ii+0] = v
			inds[ii+1] = v + 1
			inds[ii+2] = v + 2
			inds[ii+3] = v + 1
			inds[ii+4] = v + 3
			inds[ii+5] = v + 2
			ii += 6
		}
	}
}

// Name identifies the producer in debug output.
func (s *StrandSystem) Name() string { return "strands" }

// Count returns the number of strands.
func (s *StrandSystem) Count() int { return len(s.strands) }

// SetBounds sets the target rectangle the cloth plane is fitted into.
func (s *StrandSystem) SetBounds(r Rect) { s.proj.bounds = r }

// SetOpacity sets the entrance opacity.
func (s *StrandSystem) SetOpacity(a float64) { s.opacity = clamp01(a) }

// strandPoint returns point j of strand st for the given inputs, in
// cloth-local space.
func (s *StrandSystem) strandPoint(st *threadStrand, anchor Vec3, j int, in clothInputs) Vec3 {
	off := st.base[j]
	if in.Reduced {
		return anchor.Add(off)
	}
	n := len(st.base)
	t := float64(j) / float64(n-1)
	arg := in.Time*st.speed + st.phase + t*2.4
	off.X += st.amplitude * t * math.Sin(arg)
	off.Z += st.amplitude * 0.5 * t * math.Cos(arg*0.8)
	pull := 1 - s.cfg.Pull*foldAmount(in.Scroll)
	return anchor.Add(off.Scale(pull))
}

// anchorFor follows the deformed free edge of the cloth at u.
func (s *StrandSystem) anchorFor(u float64, in clothInputs) Vec3 {
	rest := Vec3{X: u * s.cloth.Width, Y: s.cloth.Height}
	return clothDeform(&s.cloth, rest, 1, in)
}

// Update recomputes every strand from the frame snapshot.
func (s *StrandSystem) Update(state SceneState) {
	if s.disposed {
		return
	}
	in := clothInputsFor(&s.cloth, state, state.PointerNDC)
	in.PointerInfluence = 0
	alpha := s.opacity * (1 - smoothstep(s.cloth.FadeStart, 1, in.Scroll))
	n := len(s.points)
	for k := range s.strands {
		st := &s.strands[k]
		anchor := s.anchorFor(st.anchorU, in)
		for j := range s.points {
			s.points[j] = s.strandPoint(st, anchor, j, in)
			x, y, _ := s.proj.project(s.points[j])
			s.screen[j] = Vec2{x, y}
		}
		s.writeRibbon(s.buf.Vertices[k*n*2:(k+1)*n*2], alpha)
	}
}

// writeRibbon extrudes the projected polyline into a tapered ribbon.
func (s *StrandSystem) writeRibbon(verts []ebiten.Vertex, alpha float64) {
	n := len(s.screen)
	scale := s.proj.fit()
	for i := 0; i < n; i++ {
		var nx, ny float64
		switch i {
		case 0:
			nx, ny = segmentNormal(s.screen[0], s.screen[1])
		case n - 1:
			nx, ny = segmentNormal(s.screen[n-2], s.screen[n-1])
		default:
			nx0, ny0 := segmentNormal(s.screen[i-1], s.screen[i])
			nx1, ny1 := segmentNormal(s.screen[i], s.screen[i+1])
			nx, ny = nx0+nx1, ny0+ny1
			if l := math.Hypot(nx, ny); l > 1e-10 {
				nx /= l
				ny /= l
			}
		}
		t := float64(i) / float64(n-1)
		halfW := s.cfg.Width / 2 * (1 - 0.6*t) * scale
		a := alpha * (1 - 0.7*t)
		r, g, b := float32(s.color.R*a), float32(s.color.G*a), float32(s.color.B*a)
		p := s.screen[i]
		verts[i*2] = ebiten.Vertex{
			DstX: float32(p.X + nx*halfW), DstY: float32(p.Y + ny*halfW),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: r, ColorG: g, ColorB: b, ColorA: float32(a),
		}
		verts[i*2+1] = ebiten.Vertex{
			DstX: float32(p.X - nx*halfW), DstY: float32(p.Y - ny*halfW),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: r, ColorG: g, ColorB: b, ColorA: float32(a),
		}
	}
}

// segmentNormal returns the unit perpendicular of a->b, or (0, 0) when the
// segment is degenerate.
func segmentNormal(a, b Vec2) (float64, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l < 1e-10 {
		return 0, 0
	}
	return -dy / l, dx / l
}

// Draw submits all ribbons in one call.
func (s *StrandSystem) Draw(dst *ebiten.Image) {
	if s.disposed {
		return
	}
	dst.DrawTriangles(s.buf.Vertices, s.buf.Indices, whitePixel(), &s.op)
}

// Dispose releases the ribbon buffer.
func (s *StrandSystem) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.buf.Dispose()
}

// StrandPoint evaluates point j of strand k for state in cloth-local space.
// It is a pure function of the base state and the snapshot.
func (s *StrandSystem) StrandPoint(k, j int, state SceneState) Vec3 {
	in := clothInputsFor(&s.cloth, state, state.PointerNDC)
	in.PointerInfluence = 0
	st := &s.strands[k]
	return s.strandPoint(st, s.anchorFor(st.anchorU, in), j, in)
}
