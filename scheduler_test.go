package drape

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// recordingProducer logs every call into a shared journal.
type recordingProducer struct {
	name     string
	journal  *[]string
	states   []SceneState
	draws    int
	disposed int
}

func (p *recordingProducer) Name() string { return p.name }

func (p *recordingProducer) Update(s SceneState) {
	p.states = append(p.states, s)
	*p.journal = append(*p.journal, "update:"+p.name)
}

func (p *recordingProducer) Draw(*ebiten.Image) {
	p.draws++
	*p.journal = append(*p.journal, "draw:"+p.name)
}

func (p *recordingProducer) Dispose() {
	p.disposed++
	*p.journal = append(*p.journal, "dispose:"+p.name)
}

func newRecordingScheduler() (*FrameScheduler, *SignalCell, []*recordingProducer, *[]string) {
	journal := &[]string{}
	sig := NewSignalCell()
	ps := []*recordingProducer{
		{name: "cloth", journal: journal},
		{name: "strands", journal: journal},
		{name: "particles", journal: journal},
	}
	s := NewFrameScheduler(sig, ps[0], ps[1], ps[2])
	return s, sig, ps, journal
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tick ---

func TestSchedulerNotArmed(t *testing.T) {
	s, _, ps, _ := newRecordingScheduler()
	if s.Tick(1.0 / 60) {
		t.Error("Tick ran without RequestFrame")
	}
	if len(ps[0].states) != 0 {
		t.Error("producer updated without a pending frame")
	}
}

func TestSchedulerFixedOrder(t *testing.T) {
	s, _, _, journal := newRecordingScheduler()
	s.RequestFrame()
	s.Tick(1.0 / 60)
	s.Draw(nil)
	want := []string{
		"update:cloth", "update:strands", "update:particles",
		"draw:cloth", "draw:strands", "draw:particles",
	}
	if !equalStrings(*journal, want) {
		t.Errorf("journal = %v, want %v", *journal, want)
	}
}

func TestSchedulerSameSnapshotForAll(t *testing.T) {
	s, sig, ps, _ := newRecordingScheduler()
	sig.SetScrollProgress(0.4)
	sig.SetPointerNDC(Vec2{X: 0.2, Y: -0.3})
	s.RequestFrame()
	s.Tick(0.5)

	first := ps[0].states[0]
	for _, p := range ps[1:] {
		if p.states[0] != first {
			t.Errorf("%s saw %+v, want %+v", p.name, p.states[0], first)
		}
	}
	if first.TimeSeconds != 0.5 || first.ScrollProgress != 0.4 {
		t.Errorf("snapshot = %+v", first)
	}
	if s.LastState() != first {
		t.Errorf("LastState = %+v, want %+v", s.LastState(), first)
	}
}

func TestSchedulerRearmsAndAccumulatesTime(t *testing.T) {
	s, _, ps, _ := newRecordingScheduler()
	s.RequestFrame()
	for i := 0; i < 4; i++ {
		if !s.Tick(0.25) {
			t.Fatalf("tick %d did not run", i)
		}
	}
	if s.Frames() != 4 {
		t.Errorf("Frames = %d, want 4", s.Frames())
	}
	if s.Elapsed() != 1 {
		t.Errorf("Elapsed = %v, want 1", s.Elapsed())
	}
	if got := ps[2].states[3].TimeSeconds; got != 1 {
		t.Errorf("last snapshot time = %v, want 1", got)
	}
}

// --- Cancel ---

func TestSchedulerCancel(t *testing.T) {
	s, _, ps, journal := newRecordingScheduler()
	s.RequestFrame()
	s.Tick(0.1)
	before := len(*journal)

	s.Cancel()
	if s.Pending() {
		t.Error("Pending after Cancel")
	}
	if s.Tick(0.1) {
		t.Error("Tick ran after Cancel")
	}
	s.RequestFrame()
	if s.Pending() {
		t.Error("RequestFrame re-armed a cancelled scheduler")
	}
	s.Draw(nil)
	if len(*journal) != before {
		t.Errorf("calls after Cancel: %v", (*journal)[before:])
	}
	if !s.Cancelled() || ps[0].draws != 0 {
		t.Errorf("cancelled=%v draws=%d", s.Cancelled(), ps[0].draws)
	}
}

func TestSchedulerDrawBeforeFirstTick(t *testing.T) {
	s, _, ps, _ := newRecordingScheduler()
	s.RequestFrame()
	s.Draw(nil)
	if ps[0].draws != 0 {
		t.Error("Draw ran before the first tick")
	}
}

func TestSchedulerDisposeInOrder(t *testing.T) {
	s, _, ps, journal := newRecordingScheduler()
	s.Cancel()
	s.dispose()
	want := []string{"dispose:cloth", "dispose:strands", "dispose:particles"}
	if !equalStrings(*journal, want) {
		t.Errorf("journal = %v, want %v", *journal, want)
	}
	if len(s.Producers()) != 0 {
		t.Error("producers retained after dispose")
	}
	for _, p := range ps {
		if p.disposed != 1 {
			t.Errorf("%s disposed %d times", p.name, p.disposed)
		}
	}
}

func TestSchedulerDebugTimings(t *testing.T) {
	s, _, _, _ := newRecordingScheduler()
	s.Debug = true
	s.RequestFrame()
	s.Tick(0.1)
	if len(s.stats.update) != 3 {
		t.Errorf("timings = %d, want 3", len(s.stats.update))
	}
}
