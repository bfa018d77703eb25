package drape

import (
	"encoding/json"
	"errors"
	"fmt"
)

// scriptStep is one entry of a test script. Fields are shared across
// actions; each action reads the ones it needs.
type scriptStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Page    string  `json:"page,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	DY      float64 `json:"dy,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	Enabled bool    `json:"enabled,omitempty"`
}

// scriptAction runs a step against the stage. check, when set, rejects a
// malformed step at load time.
type scriptAction struct {
	check func(st scriptStep) error
	run   func(r *TestRunner, s *Stage, st scriptStep)
}

func requirePage(st scriptStep) error {
	if st.Page == "" {
		return errors.New("missing page")
	}
	return nil
}

func requireLabel(st scriptStep) error {
	if st.Label == "" {
		return errors.New("missing label")
	}
	return nil
}

var scriptActions = map[string]scriptAction{
	"screenshot": {run: func(_ *TestRunner, s *Stage, st scriptStep) { s.Screenshot(st.Label) }},
	"scroll": {run: func(_ *TestRunner, s *Stage, st scriptStep) {
		s.InjectScrollSmooth(st.DY, max(st.Frames, 1))
	}},
	"scrollTo": {run: func(_ *TestRunner, s *Stage, st scriptStep) { s.viewport.SetScroll(st.Y) }},
	"pointer":  {run: func(_ *TestRunner, s *Stage, st scriptStep) { s.InjectPointer(st.X, st.Y) }},
	"sweep": {run: func(_ *TestRunner, s *Stage, st scriptStep) {
		s.InjectPointerPath(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	}},
	"wait": {run: func(r *TestRunner, _ *Stage, st scriptStep) {
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // the current frame is the first
		}
	}},
	"navigate": {check: requirePage, run: func(r *TestRunner, s *Stage, st scriptStep) {
		if err := s.NavigateTo(st.Page); err != nil && r.err == nil {
			r.err = err
		}
	}},
	"anchor": {check: requireLabel, run: func(_ *TestRunner, s *Stage, st scriptStep) {
		if s.page != nil && !s.page.ScrollToAnchor(st.Label) {
			Logger().Debug("drape: script anchor not found", "label", st.Label)
		}
	}},
	"reducedMotion": {run: func(_ *TestRunner, s *Stage, st scriptStep) {
		s.ReducedMotion = st.Enabled
		s.probe()
	}},
}

// TestRunner replays a scripted sequence of scrolls, pointer moves,
// navigations and screenshots, one step per frame. Attach it with
// Stage.SetTestRunner.
type TestRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	err       error
}

// LoadTestScript parses a JSON test script of the form {"steps": [...]}.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script struct {
		Steps []scriptStep `json:"steps"`
	}
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("drape: parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("drape: parse test script: no steps")
	}
	for i, st := range script.Steps {
		a, ok := scriptActions[st.Action]
		if !ok {
			return nil, fmt.Errorf("drape: parse test script: step %d: unknown action %q", i, st.Action)
		}
		if a.check != nil {
			if err := a.check(st); err != nil {
				return nil, fmt.Errorf("drape: parse test script: step %d (%s): %w", i, st.Action, err)
			}
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches runner; Stage.Update steps it before reading input.
func (s *Stage) SetTestRunner(runner *TestRunner) {
	s.testRunner = runner
}

// Done reports whether every step has run.
func (r *TestRunner) Done() bool { return r.done }

// Err returns the first navigation error.
func (r *TestRunner) Err() error { return r.err }

// step runs at most one script step. Injected input and waits hold the
// cursor until they drain.
func (r *TestRunner) step(s *Stage) {
	if r.done || len(s.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor < len(r.steps) {
		st := r.steps[r.cursor]
		r.cursor++
		scriptActions[st.Action].run(r, s, st)
	}
	r.done = r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0
}
