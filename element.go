package drape

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Inset clips an element's box from each edge, as fractions of its size.
type Inset struct {
	Top, Right, Bottom, Left float64
}

func lerpInset(a, b Inset, t float64) Inset {
	return Inset{
		Top:    lerp(a.Top, b.Top, t),
		Right:  lerp(a.Right, b.Right, t),
		Bottom: lerp(a.Bottom, b.Bottom, t),
		Left:   lerp(a.Left, b.Left, t),
	}
}

// ElementState is the animatable presentation of an element: an offset from
// its layout box, a uniform scale and rotation about the box center, an
// opacity, and a clip inset.
type ElementState struct {
	Opacity  float64
	X, Y     float64
	Scale    float64
	Rotation float64 // radians
	Clip     Inset
}

// RestState is the identity presentation: fully opaque, untransformed,
// unclipped.
var RestState = ElementState{Opacity: 1, Scale: 1}

// LerpState interpolates every field of a toward b by t.
func LerpState(a, b ElementState, t float64) ElementState {
	return ElementState{
		Opacity:  lerp(a.Opacity, b.Opacity, t),
		X:        lerp(a.X, b.X, t),
		Y:        lerp(a.Y, b.Y, t),
		Scale:    lerp(a.Scale, b.Scale, t),
		Rotation: lerp(a.Rotation, b.Rotation, t),
		Clip:     lerpInset(a.Clip, b.Clip, t),
	}
}

// Element is one box in a page's layout tree. Box is in page coordinates
// and is the layout rectangle that scroll triggers measure; State is applied
// on top of it when drawing. Children inherit the parent's transform and
// opacity.
type Element struct {
	Name  string
	Box   Rect
	Color Color
	// Image, when set, is drawn stretched over the box instead of a solid
	// fill.
	Image *ebiten.Image
	State ElementState

	parent   *Element
	children []*Element
	disposed bool
}

// NewElement creates an element at rest with the given layout box.
func NewElement(name string, box Rect, c Color) *Element {
	return &Element{Name: name, Box: box, Color: c, State: RestState}
}

// --- Tree manipulation ---

// AddChild appends child. If child already has a parent, it is removed from
// that parent first. Panics if child is nil or an ancestor of e.
func (e *Element) AddChild(child *Element) {
	if child == nil {
		panic("drape: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(e, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, e) {
		panic("drape: adding child would create a cycle")
	}
	if child.parent != nil {
		child.parent.removeChildByPtr(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveFromParent detaches e from its parent. No-op without a parent.
func (e *Element) RemoveFromParent() {
	if e.parent == nil {
		return
	}
	e.parent.removeChildByPtr(e)
	e.parent = nil
}

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child list. The returned slice must not be mutated.
func (e *Element) Children() []*Element { return e.children }

// Find returns the first element named name in e's subtree, depth first.
func (e *Element) Find(name string) *Element {
	if e.Name == name {
		return e
	}
	for _, c := range e.children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// --- Disposal ---

// Dispose detaches e and marks it and every descendant disposed.
func (e *Element) Dispose() {
	if e.disposed {
		return
	}
	e.RemoveFromParent()
	e.dispose()
}

func (e *Element) dispose() {
	e.disposed = true
	for _, c := range e.children {
		c.parent = nil
		c.dispose()
	}
	e.children = nil
	e.Image = nil
}

// IsDisposed reports whether Dispose has run on e or an ancestor.
func (e *Element) IsDisposed() bool { return e.disposed }

func isAncestor(candidate, e *Element) bool {
	for p := e; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

func (e *Element) removeChildByPtr(child *Element) {
	for i, c := range e.children {
		if c == child {
			copy(e.children[i:], e.children[i+1:])
			e.children[len(e.children)-1] = nil
			e.children = e.children[:len(e.children)-1]
			return
		}
	}
}

// --- Transform ---

// identityTransform is the identity affine matrix [a, b, c, d, tx, ty].
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// localTransform scales and rotates about the box center, then offsets by
// State.X/Y. All in page coordinates.
func (e *Element) localTransform() [6]float64 {
	c := e.Box.Center()
	s := e.State.Scale
	sin, cos := math.Sincos(e.State.Rotation)
	a, b := cos*s, sin*s
	cc, d := -sin*s, cos*s
	tx := -(a*c.X + cc*c.Y) + c.X + e.State.X
	ty := -(b*c.X + d*c.Y) + c.Y + e.State.Y
	return [6]float64{a, b, cc, d, tx, ty}
}

// multiplyAffine returns parent * child.
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// WorldTransform composes e's transform with every ancestor's.
func (e *Element) WorldTransform() [6]float64 {
	m := e.localTransform()
	for p := e.parent; p != nil; p = p.parent {
		m = multiplyAffine(p.localTransform(), m)
	}
	return m
}

// WorldOpacity multiplies e's opacity with every ancestor's.
func (e *Element) WorldOpacity() float64 {
	a := e.State.Opacity
	for p := e.parent; p != nil; p = p.parent {
		a *= p.State.Opacity
	}
	return a
}

// ClipRect returns the visible part of Box after the clip inset, in page
// coordinates before transform.
func (e *Element) ClipRect() Rect {
	b, in := e.Box, e.State.Clip
	x0 := b.X + b.Width*clamp01(in.Left)
	y0 := b.Y + b.Height*clamp01(in.Top)
	x1 := b.X + b.Width*(1-clamp01(in.Right))
	y1 := b.Y + b.Height*(1-clamp01(in.Bottom))
	return Rect{X: x0, Y: y0, Width: max(x1-x0, 0), Height: max(y1-y0, 0)}
}

// --- Drawing ---

// drawTree draws e and its descendants with the page scrolled by scrollY.
func drawTree(dst *ebiten.Image, e *Element, parent [6]float64, parentAlpha, scrollY float64, op *ebiten.DrawImageOptions) {
	if e.disposed {
		return
	}
	world := multiplyAffine(parent, e.localTransform())
	alpha := parentAlpha * clamp01(e.State.Opacity)
	if alpha <= 0 {
		return
	}
	e.drawSelf(dst, world, alpha, scrollY, op)
	for _, c := range e.children {
		drawTree(dst, c, world, alpha, scrollY, op)
	}
}

func (e *Element) drawSelf(dst *ebiten.Image, world [6]float64, alpha, scrollY float64, op *ebiten.DrawImageOptions) {
	clip := e.ClipRect()
	if clip.Width <= 0 || clip.Height <= 0 {
		return
	}
	src := whitePixel()
	sw, sh := 1.0, 1.0
	if e.Image != nil {
		b := e.Image.Bounds()
		fx0 := (clip.X - e.Box.X) / e.Box.Width
		fy0 := (clip.Y - e.Box.Y) / e.Box.Height
		r := image.Rect(
			b.Min.X+int(fx0*float64(b.Dx())),
			b.Min.Y+int(fy0*float64(b.Dy())),
			b.Min.X+int((fx0+clip.Width/e.Box.Width)*float64(b.Dx())),
			b.Min.Y+int((fy0+clip.Height/e.Box.Height)*float64(b.Dy())),
		)
		if r.Empty() {
			return
		}
		src = e.Image.SubImage(r).(*ebiten.Image)
		sw, sh = float64(r.Dx()), float64(r.Dy())
	}

	op.GeoM.Reset()
	op.GeoM.Scale(clip.Width/sw, clip.Height/sh)
	op.GeoM.Translate(clip.X, clip.Y)
	var g ebiten.GeoM
	g.SetElement(0, 0, world[0])
	g.SetElement(1, 0, world[1])
	g.SetElement(0, 1, world[2])
	g.SetElement(1, 1, world[3])
	g.SetElement(0, 2, world[4])
	g.SetElement(1, 2, world[5])
	op.GeoM.Concat(g)
	op.GeoM.Translate(0, -scrollY)

	c := e.Color
	if e.Image != nil {
		c = ColorWhite
	}
	a := float32(clamp01(c.A) * alpha)
	op.ColorScale.Reset()
	op.ColorScale.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
	dst.DrawImage(src, op)
}
