package drape

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// posterCellPixels is the CPU raster resolution per cloth cell before
// upscaling.
const posterCellPixels = 4

// RenderPoster rasterizes a static frame of the cloth on the CPU, for hosts
// where the effect is disabled. The fabric is shaded at rest (scroll 0, no
// wind, no pointer) at a coarse resolution and upscaled to w x h scaled by
// the capped pixel density. No GPU is touched.
func RenderPoster(w, h int, deviceScale float64, cfg Config) (*image.RGBA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pal, err := cfg.Cloth.Palette.parse()
	if err != nil {
		return nil, err
	}
	density := pixelDensity(deviceScale, cfg.PixelDensityCap)
	ow := max(int(math.Ceil(float64(w)*density)), 1)
	oh := max(int(math.Ceil(float64(h)*density)), 1)

	cc := &cfg.Cloth
	lw := min(cc.Cols*posterCellPixels, ow)
	lh := min(cc.Rows*posterCellPixels, oh)
	low := image.NewRGBA(image.Rect(0, 0, lw, lh))

	u := clothUniforms{
		Opacity:    1,
		FadeStart:  cc.FadeStart,
		WeaveScale: Vec2{X: cc.WeaveDensity, Y: cc.WeaveDensity * cc.Height / cc.Width},
		RimPower:   cc.RimPower,
		Palette:    pal,
		Pointer:    Vec2{X: 0.5, Y: 0.5},
	}
	proj := clothProjection{
		bounds:   Rect{Width: float64(lw), Height: float64(lh)},
		width:    cc.Width,
		height:   cc.Height,
		distance: cc.CameraDistance,
	}
	in := clothInputs{}
	at := func(uvx, uvy float64) Vec3 {
		rest := Vec3{X: uvx * cc.Width, Y: uvy * cc.Height}
		p := clothDeform(cc, rest, uvy, in)
		x, y, z := proj.project(p)
		return Vec3{x, y, z}
	}

	du := 1 / float64(cc.Cols)
	dv := 1 / float64(cc.Rows)
	for py := 0; py < lh; py++ {
		for px := 0; px < lw; px++ {
			uv := Vec2{X: (float64(px) + 0.5) / float64(lw), Y: (float64(py) + 0.5) / float64(lh)}
			a := at(uv.X, uv.Y)
			n := facetNormal(a, at(uv.X, uv.Y+dv), at(uv.X+du, uv.Y))
			low.SetRGBA(px, py, shadeCloth(u, uv, n).premultipliedRGBA())
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, ow, oh))
	draw.CatmullRom.Scale(out, out.Bounds(), low, low.Bounds(), draw.Src, nil)
	return out, nil
}

// premultipliedRGBA converts an already premultiplied color.
func (c Color) premultipliedRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}
