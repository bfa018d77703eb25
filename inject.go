package drape

// syntheticKind distinguishes queued input events.
type syntheticKind uint8

const (
	syntheticPointer syntheticKind = iota
	syntheticScroll
)

// syntheticEvent represents a single injected input event. Pointer
// positions are screen coordinates, identical to real cursor input.
type syntheticEvent struct {
	kind             syntheticKind
	screenX, screenY float64
	scrollDY         float64
}

// InjectPointer queues a pointer move to the given screen coordinates. The
// event is consumed on the next frame's input pass.
func (s *Stage) InjectPointer(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		kind:    syntheticPointer,
		screenX: x, screenY: y,
	})
}

// InjectPointerPath queues a pointer sweep from (fromX, fromY) to
// (toX, toY), linearly interpolated over frames frames. Minimum frames is 2.
func (s *Stage) InjectPointerPath(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		s.InjectPointer(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
}

// InjectScroll queues a wheel scroll of dy pixels (positive scrolls down).
func (s *Stage) InjectScroll(dy float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		kind:     syntheticScroll,
		scrollDY: dy,
	})
}

// InjectScrollSmooth splits dy into frames equal wheel steps.
func (s *Stage) InjectScrollSmooth(dy float64, frames int) {
	if frames < 1 {
		frames = 1
	}
	step := dy / float64(frames)
	for i := 0; i < frames; i++ {
		s.InjectScroll(step)
	}
}

// processInjectedInput pops one event from the inject queue and applies it.
// Returns true if an event was consumed (real input is skipped that frame).
func (s *Stage) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	switch evt.kind {
	case syntheticPointer:
		s.pointerX, s.pointerY = evt.screenX, evt.screenY
		s.pointerKnown = true
	case syntheticScroll:
		s.viewport.ScrollBy(evt.scrollDY)
	}
	return true
}
