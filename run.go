package drape

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	// TestScript, when non-nil, is loaded with LoadTestScript and attached
	// to the stage; the loop exits once the script is done.
	TestScript []byte
}

// errScriptDone ends the loop after a test script completes.
var errScriptDone = errors.New("drape: test script done")

// runGame wraps a Stage to end the loop after a test script.
type runGame struct {
	*Stage
}

func (g runGame) Update() error {
	if err := g.Stage.Update(); err != nil {
		return err
	}
	if r := g.testRunner; r != nil && r.Done() && len(g.screenshotQueue) == 0 {
		if err := r.Err(); err != nil {
			return err
		}
		return errScriptDone
	}
	return nil
}

// Run opens a window and drives stage until the window closes. The mounted
// page is unmounted before Run returns.
func Run(stage *Stage, cfg RunConfig) error {
	if cfg.TestScript != nil {
		runner, err := LoadTestScript(cfg.TestScript)
		if err != nil {
			return err
		}
		stage.SetTestRunner(runner)
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = int(stage.viewport.Width)
	}
	if h <= 0 {
		h = int(stage.viewport.Height)
	}
	ebiten.SetWindowSize(w, h)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	defer stage.Close()

	err := ebiten.RunGame(runGame{stage})
	if errors.Is(err, errScriptDone) {
		return nil
	}
	return err
}
