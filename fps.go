package drape

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// fpsRefresh is how often the overlay text is rebuilt, in seconds.
const fpsRefresh = 0.5

// fpsCounter caches the FPS/TPS overlay line so the debug overlay does not
// format a string every frame.
type fpsCounter struct {
	elapsed float64
	text    string
}

func newFPSCounter() *fpsCounter {
	return &fpsCounter{text: "FPS: -\nTPS: -"}
}

func (f *fpsCounter) update(dt float64) {
	f.elapsed += dt
	if f.elapsed < fpsRefresh {
		return
	}
	f.elapsed = 0
	f.text = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}
