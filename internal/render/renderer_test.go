// ABOUTME: Tests for the frame renderer
// ABOUTME: Uses a recording surface to check the polyline, playhead placement and frame scheduling
package render

import (
	"math"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/waveview/internal/audiotest"
	"github.com/Resonate-Protocol/waveview/internal/transport"
	"github.com/Resonate-Protocol/waveview/internal/view"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
)

type stroke struct {
	color  lipgloss.Color
	points []point
}

// recorder is a Surface that keeps every stroke since the last Clear
type recorder struct {
	width, height int
	clears        int
	color         lipgloss.Color
	path          []point
	strokes       []stroke
}

func (r *recorder) Size() (int, int) { return r.width, r.height }
func (r *recorder) Clear()           { r.clears++; r.strokes = nil }
func (r *recorder) BeginPath()       { r.path = nil }
func (r *recorder) MoveTo(x, y float64) {
	r.path = append(r.path, point{x: x, y: y, moveTo: true})
}
func (r *recorder) LineTo(x, y float64) {
	r.path = append(r.path, point{x: x, y: y})
}
func (r *recorder) Stroke() {
	r.strokes = append(r.strokes, stroke{color: r.color, points: append([]point(nil), r.path...)})
}
func (r *recorder) SetStrokeColor(c lipgloss.Color) { r.color = c }

type fixture struct {
	surface *recorder
	tf      *view.Transform
	tr      *transport.Transport
	engine  *output.Null
	now     float64
}

func newFixture(buf *audio.Buffer, width int) *fixture {
	f := &fixture{surface: &recorder{width: width, height: 40}}
	f.engine = output.NewNull()
	f.engine.Clock = func() float64 { return f.now }
	f.tr = transport.New(f.engine)
	f.tf = view.New(width)
	if buf != nil {
		f.tr.Load(buf)
		f.tf.Reset(buf.Len())
	}
	return f
}

func TestFrameWithoutBuffer(t *testing.T) {
	f := newFixture(nil, 100)

	if NewRenderer().Frame(f.surface, f.tf, f.tr) {
		t.Error("expected no further frames without a buffer")
	}
	if f.surface.clears != 1 {
		t.Errorf("expected surface cleared once, got %d", f.surface.clears)
	}
	if len(f.surface.strokes) != 0 {
		t.Errorf("expected nothing drawn, got %d strokes", len(f.surface.strokes))
	}
}

func TestWaveformPolyline(t *testing.T) {
	buf := audio.NewBuffer(1000, 1, 4)
	copy(buf.Channels[0], []float32{1, 0, -1, 0.5})
	f := newFixture(buf, 4)

	NewRenderer().Frame(f.surface, f.tf, f.tr)

	wave := f.surface.strokes[0]
	expected := []point{
		{x: 0, y: 0, moveTo: true},
		{x: 1, y: 20},
		{x: 2, y: 40},
		{x: 3, y: 10},
	}
	if len(wave.points) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(wave.points))
	}
	for i, p := range expected {
		if wave.points[i] != p {
			t.Errorf("point %d: expected %+v, got %+v", i, p, wave.points[i])
		}
	}
}

func TestWaveformStopsAtBufferEnd(t *testing.T) {
	buf := audiotest.Constant(1000, 1, 100, 0)
	f := newFixture(buf, 200)

	// The surface is wider than the viewport, so the walk runs past the last sample
	f.surface.width = 300
	NewRenderer().Frame(f.surface, f.tf, f.tr)

	wave := f.surface.strokes[0]
	last := wave.points[len(wave.points)-1]
	if last.x >= 200 {
		t.Errorf("expected walk to stop before column 200, last column %f", last.x)
	}
}

func TestPlayheadStaticWhenStopped(t *testing.T) {
	f := newFixture(audiotest.Constant(44100, 1, 44100, 0), 441)
	f.tr.Play(0.5)
	f.tr.Pause()

	if NewRenderer().Frame(f.surface, f.tf, f.tr) {
		t.Error("expected no further frames while stopped")
	}
	if len(f.surface.strokes) != 2 {
		t.Fatalf("expected waveform and playhead strokes, got %d", len(f.surface.strokes))
	}

	head := f.surface.strokes[1]
	if head.color != DefaultPalette.Playhead {
		t.Errorf("expected playhead color %q, got %q", DefaultPalette.Playhead, head.color)
	}
	if math.Abs(head.points[0].x-220.5) > 1e-9 {
		t.Errorf("expected playhead at 220.5, got %f", head.points[0].x)
	}
	if head.points[0].y != 0 || head.points[1].y != 40 {
		t.Errorf("expected playhead to span full height, got %f..%f", head.points[0].y, head.points[1].y)
	}
}

func TestPlayheadMutedColor(t *testing.T) {
	f := newFixture(audiotest.Constant(44100, 1, 44100, 0), 441)
	f.tr.ToggleMute()

	NewRenderer().Frame(f.surface, f.tf, f.tr)

	head := f.surface.strokes[len(f.surface.strokes)-1]
	if head.color != DefaultPalette.MutedPlayhead {
		t.Errorf("expected muted playhead color %q, got %q", DefaultPalette.MutedPlayhead, head.color)
	}
}

func TestPlayheadHiddenOutsideView(t *testing.T) {
	f := newFixture(audiotest.Constant(1000, 1, 1000, 0), 100)
	f.tf.ZoomBy(4)
	f.tf.ScrollTo(1)

	// Position 0 is left of the visible window
	NewRenderer().Frame(f.surface, f.tf, f.tr)
	if len(f.surface.strokes) != 1 {
		t.Errorf("expected only the waveform stroke, got %d", len(f.surface.strokes))
	}
}

func TestFrameSchedulingWhilePlaying(t *testing.T) {
	f := newFixture(audiotest.Constant(1000, 1, 1000, 0), 100)
	r := NewRenderer()

	f.tr.Play(0)
	if !r.Frame(f.surface, f.tf, f.tr) {
		t.Fatal("expected another frame while playing")
	}

	f.now += 0.5
	if !r.Frame(f.surface, f.tf, f.tr) {
		t.Fatal("expected another frame mid-buffer")
	}

	f.tr.Pause()
	if r.Frame(f.surface, f.tf, f.tr) {
		t.Error("expected scheduling to stop after pause")
	}
}

func TestFrameEndOfBuffer(t *testing.T) {
	f := newFixture(audiotest.Constant(44100, 1, 44100, 0), 441)
	r := NewRenderer()

	f.tr.Play(0.999)
	if !r.Frame(f.surface, f.tf, f.tr) {
		t.Fatal("expected another frame before the end")
	}

	f.now += 0.01
	if r.Frame(f.surface, f.tf, f.tr) {
		t.Error("expected scheduling to stop at end of buffer")
	}
	if f.tr.IsPlaying() || f.tr.CurrentTime() != 0 {
		t.Errorf("expected stopped at zero, got playing=%v time=%f", f.tr.IsPlaying(), f.tr.CurrentTime())
	}

	for _, s := range f.surface.strokes[1:] {
		for _, p := range s.points {
			if p.x < 0 || p.x > 441 {
				t.Errorf("playhead drawn outside the view at %f", p.x)
			}
		}
	}
}

func TestFrameUndefinedTransform(t *testing.T) {
	f := newFixture(audiotest.Constant(1000, 1, 1000, 0), 0)

	NewRenderer().Frame(f.surface, f.tf, f.tr)
	if len(f.surface.strokes) != 0 {
		t.Errorf("expected nothing drawn at zero width, got %d strokes", len(f.surface.strokes))
	}
}
