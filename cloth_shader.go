package drape

import "math"

// clothShaderSrc shades the deformed cloth mesh. Vertex attributes arrive in
// custom: xy = fabric UV in [0, 1], z = depth in pixels toward the viewer,
// w = pin weight. The normal is reconstructed per pixel from screen-space
// derivatives of position, which gives the deliberately faceted look.
//
// shadeCloth below mirrors this function on the CPU; keep them in step.
const clothShaderSrc = `//kage:unit pixels

package main

var Time float
var Scroll float
var Pointer vec2
var Opacity float
var FadeStart float
var WeaveScale vec2
var RimPower float
var BaseA vec3
var BaseB vec3
var Thread vec3
var Highlight vec3

func facetNormal(dx, dy vec3) vec3 {
	n := cross(dx, dy)
	if length(n) < 0.000001 {
		return vec3(0, 0, 1)
	}
	n = normalize(n)
	if n.z < 0 {
		n = n * -1.0
	}
	return n
}

func weaveMask(uv vec2) float {
	g := uv * WeaveScale
	f := fract(g)
	warp := 1.0 - smoothstep(0.28, 0.5, abs(f.x-0.5))
	weft := 1.0 - smoothstep(0.28, 0.5, abs(f.y-0.5))
	cell := mod(floor(g.x)+floor(g.y), 2.0)
	return mix(warp*(0.6+0.4*weft), weft*(0.6+0.4*warp), cell)
}

func Fragment(dstPos vec4, srcPos vec2, color vec4, custom vec4) vec4 {
	uv := custom.xy
	p := vec3(dstPos.xy, custom.z)
	n := facetNormal(dfdx(p), dfdy(p))

	col := mix(BaseA, BaseB, clamp(uv.y*0.8+n.x*0.2+0.1, 0, 1))
	col = mix(col, Thread, weaveMask(uv)*0.35)

	facing := clamp(n.z, 0, 1)
	rim := pow(1.0-facing, RimPower) * (0.85 + 0.15*sin(uv.x*6.0+uv.y*3.0+Time*0.4))
	col = mix(col, Highlight, clamp(rim*0.6, 0, 1))

	warmth := exp(-distance(uv, Pointer)*6.0) * 0.18
	col = clamp(col+Thread*warmth, vec3(0), vec3(1))

	a := Opacity * (1.0 - smoothstep(FadeStart, 1.0, Scroll))
	return vec4(col*a, a)
}
`

// clothUniforms are the values uploaded to the cloth shader each frame.
type clothUniforms struct {
	Time       float64
	Scroll     float64
	Pointer    Vec2 // UV space
	Opacity    float64
	FadeStart  float64
	WeaveScale Vec2
	RimPower   float64
	Palette    palette
}

// shadeCloth evaluates the cloth fragment function for a given UV and facet
// normal. It returns a premultiplied color.
func shadeCloth(u clothUniforms, uv Vec2, n Vec3) Color {
	p := u.Palette
	col := p.baseA.Lerp(p.baseB, clamp01(uv.Y*0.8+n.X*0.2+0.1))
	col = col.Lerp(p.thread, weaveMask(uv, u.WeaveScale)*0.35)

	facing := clamp01(n.Z)
	rim := math.Pow(1-facing, u.RimPower) * (0.85 + 0.15*math.Sin(uv.X*6+uv.Y*3+u.Time*0.4))
	col = col.Lerp(p.highlight, clamp01(rim*0.6))

	dx, dy := uv.X-u.Pointer.X, uv.Y-u.Pointer.Y
	warmth := math.Exp(-math.Sqrt(dx*dx+dy*dy)*6) * 0.18
	col = Color{
		R: clamp01(col.R + p.thread.R*warmth),
		G: clamp01(col.G + p.thread.G*warmth),
		B: clamp01(col.B + p.thread.B*warmth),
	}

	a := u.Opacity * (1 - smoothstep(u.FadeStart, 1, u.Scroll))
	return Color{R: col.R * a, G: col.G * a, B: col.B * a, A: a}
}

// weaveMask is the two-family thread lattice: warp threads run vertically,
// weft threads horizontally, alternating over/under per cell.
func weaveMask(uv, scale Vec2) float64 {
	gx, gy := uv.X*scale.X, uv.Y*scale.Y
	fx, fy := fract(gx), fract(gy)
	warp := 1 - smoothstep(0.28, 0.5, math.Abs(fx-0.5))
	weft := 1 - smoothstep(0.28, 0.5, math.Abs(fy-0.5))
	cell := math.Mod(math.Floor(gx)+math.Floor(gy), 2)
	if cell < 0 {
		cell += 2
	}
	return lerp(warp*(0.6+0.4*weft), weft*(0.6+0.4*warp), cell)
}

// facetNormal mirrors the shader's derivative normal for one triangle given
// its three projected corners (pixels, depth toward the viewer).
func facetNormal(a, b, c Vec3) Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-6 {
		return Vec3{Z: 1}
	}
	n = n.Normalize()
	if n.Z < 0 {
		n = n.Scale(-1)
	}
	return n
}
