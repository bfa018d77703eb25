package drape

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// ResourceCounts tallies live GPU-side resources owned by mounted engines.
type ResourceCounts struct {
	Geometries int // vertex/index buffers
	Programs   int // compiled shaders
	Buffers    int // instance transform buffers
	Textures   int // offscreen canvases and sprite images
}

// liveResources is a plain counter (no atomic, drape is single-threaded).
var liveResources ResourceCounts

// LiveResources returns the current totals. After every mount has been
// unmounted the totals return to their pre-mount baseline.
func LiveResources() ResourceCounts {
	return liveResources
}

// compileShader is the Kage compiler. Tests replace it to simulate compile
// failures without a graphics driver.
var compileShader = ebiten.NewShader

// --- VertexBuffer ---

// VertexBuffer is an owned triangle buffer of fixed size. It is allocated
// once at mount and updated in place every frame; it never grows.
type VertexBuffer struct {
	Vertices []ebiten.Vertex
	Indices  []uint16
	disposed bool
}

func newVertexBuffer(numVerts, numInds int) *VertexBuffer {
	liveResources.Geometries++
	return &VertexBuffer{
		Vertices: make([]ebiten.Vertex, numVerts),
		Indices:  make([]uint16, numInds),
	}
}

// Dispose releases the buffer. Safe to call twice.
func (b *VertexBuffer) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	b.Vertices = nil
	b.Indices = nil
	liveResources.Geometries--
}

// Disposed reports whether Dispose has run.
func (b *VertexBuffer) Disposed() bool { return b.disposed }

// --- InstanceBuffer ---

// instanceStride is the number of float32s per slot (one 4x4 matrix).
const instanceStride = 16

// InstanceBuffer holds one column-major 4x4 transform per instance in a
// single flat slice. Writers fill slots during a frame and call MarkDirty
// once; the version counter lets tests and uploaders observe exactly one
// bump per frame.
type InstanceBuffer struct {
	data     []float32
	count    int
	version  uint64
	dirty    bool
	disposed bool
}

func newInstanceBuffer(count int) *InstanceBuffer {
	liveResources.Buffers++
	return &InstanceBuffer{data: make([]float32, count*instanceStride), count: count}
}

// Len returns the number of slots.
func (b *InstanceBuffer) Len() int { return b.count }

// Slot returns the 16-float window for instance i. Writes go straight into
// the shared buffer.
func (b *InstanceBuffer) Slot(i int) []float32 {
	off := i * instanceStride
	return b.data[off : off+instanceStride : off+instanceStride]
}

// MarkDirty flags the buffer for upload and bumps the version.
func (b *InstanceBuffer) MarkDirty() {
	b.dirty = true
	b.version++
}

// Dirty reports whether the buffer changed since the last upload.
func (b *InstanceBuffer) Dirty() bool { return b.dirty }

// Version returns the number of MarkDirty calls so far.
func (b *InstanceBuffer) Version() uint64 { return b.version }

// clearDirty is called by the uploader after consuming the buffer.
func (b *InstanceBuffer) clearDirty() { b.dirty = false }

// Dispose releases the buffer. Safe to call twice.
func (b *InstanceBuffer) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	b.data = nil
	liveResources.Buffers--
}

// --- shaderProgram ---

// shaderProgram is an owned compiled Kage shader.
type shaderProgram struct {
	shader   *ebiten.Shader
	disposed bool
}

func newShaderProgram(src []byte) (*shaderProgram, error) {
	s, err := compileShader(src)
	if err != nil {
		return nil, err
	}
	liveResources.Programs++
	return &shaderProgram{shader: s}, nil
}

// Dispose deallocates the shader. Safe to call twice.
func (p *shaderProgram) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	if p.shader != nil {
		p.shader.Deallocate()
	}
	p.shader = nil
	liveResources.Programs--
}

// --- ownedImage ---

// ownedImage is an image created at mount and deallocated at unmount.
type ownedImage struct {
	img      *ebiten.Image
	disposed bool
}

func newOwnedImage(w, h int) *ownedImage {
	liveResources.Textures++
	return &ownedImage{img: ebiten.NewImage(max(w, 1), max(h, 1))}
}

// Dispose deallocates the image. Safe to call twice.
func (o *ownedImage) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	o.img.Deallocate()
	o.img = nil
	liveResources.Textures--
}

// --- whitePixel ---

var whitePixelImage *ebiten.Image

// whitePixel returns a lazily created 1x1 white image used as the source for
// untextured triangles. It is shared process-wide and never counted as a
// mount resource.
func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

// newOwnedImageFrom uploads src as an owned image.
func newOwnedImageFrom(src image.Image) *ownedImage {
	liveResources.Textures++
	return &ownedImage{img: ebiten.NewImageFromImage(src)}
}
