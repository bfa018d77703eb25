package drape

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// capture is a screenshot request. Page and scroll are recorded when the
// request is queued so the file name describes what the script asked for.
type capture struct {
	label  string
	page   string
	scroll int
}

// fileName returns "<stamp>_<page>_<label>_y<scroll>.png".
func (c capture) fileName(stamp string) string {
	page := c.page
	if page == "" {
		page = "none"
	}
	return fmt.Sprintf("%s_%s_%s_y%d.png", stamp, sanitizeLabel(page), sanitizeLabel(c.label), c.scroll)
}

// Screenshot queues a labeled capture of the next drawn frame. Files land
// in ScreenshotDir.
func (s *Stage) Screenshot(label string) {
	c := capture{label: label, scroll: int(s.viewport.ScrollY())}
	if s.page != nil {
		c.page = s.page.Name
	}
	s.screenshotQueue = append(s.screenshotQueue, c)
}

// flushScreenshots reads the frame back once and writes it for every
// queued capture.
func (s *Stage) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshotQueue) == 0 {
		return
	}
	defer func() { s.screenshotQueue = s.screenshotQueue[:0] }()

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		Logger().Warn("drape: screenshot dir", "dir", s.ScreenshotDir, "err", err)
		return
	}

	b := screen.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pixels)
	img := unpremultiply(pixels, b.Dx(), b.Dy())

	stamp := time.Now().Format("20060102_150405")
	for _, c := range s.screenshotQueue {
		path := filepath.Join(s.ScreenshotDir, c.fileName(stamp))
		if err := writePNG(path, img); err != nil {
			Logger().Warn("drape: screenshot", "label", c.label, "err", err)
			continue
		}
		Logger().Info("drape: screenshot", "path", path)
	}
}

// unpremultiply converts premultiplied RGBA bytes, as ebiten reads them
// back, into straight-alpha NRGBA for PNG encoding.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	src := &image.RGBA{Pix: pixels, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	dst := image.NewNRGBA(src.Rect)
	draw.Draw(dst, dst.Rect, src, image.Point{}, draw.Src)
	return dst
}

// WritePoster encodes a poster rendered by RenderPoster as a PNG file.
func WritePoster(path string, poster *image.RGBA) error {
	b := poster.Bounds()
	return writePNG(path, unpremultiply(poster.Pix, b.Dx(), b.Dy()))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("drape: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("drape: encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps letters, digits, '-' and '.', replaces anything else
// with '_', and maps an empty label to "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
