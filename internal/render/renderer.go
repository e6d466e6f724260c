// ABOUTME: Frame renderer for the waveform view
// ABOUTME: Draws the channel 0 polyline and the playhead, and decides whether another frame is due
package render

import (
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/waveview/internal/transport"
	"github.com/Resonate-Protocol/waveview/internal/view"
)

// Palette holds the stroke colors for one frame
type Palette struct {
	Waveform      lipgloss.Color
	Playhead      lipgloss.Color
	MutedPlayhead lipgloss.Color
}

// DefaultPalette draws an uncolored waveform with a red playhead that turns gray when muted
var DefaultPalette = Palette{
	Waveform:      lipgloss.Color(""),
	Playhead:      lipgloss.Color("9"),
	MutedPlayhead: lipgloss.Color("8"),
}

// Renderer produces frames
type Renderer struct {
	Palette Palette
}

// NewRenderer creates a renderer with the default palette
func NewRenderer() *Renderer {
	return &Renderer{Palette: DefaultPalette}
}

// Frame draws one frame onto s. It returns true when playback is still running and
// the caller should schedule the next frame.
//
// End of buffer is detected here: once the position reaches the end the transport
// rewinds to 0 and the frame shows the playhead at the start.
func (r *Renderer) Frame(s Surface, tf *view.Transform, tr *transport.Transport) bool {
	s.Clear()

	buf := tr.Buffer()
	if buf == nil {
		return false
	}

	playing := tr.IsPlaying()
	if playing && tr.CheckEnd() {
		playing = false
	}

	if !tf.Valid() {
		return playing
	}

	width, height := s.Size()
	r.drawWaveform(s, tf, buf.Channel(0), width, height)
	r.drawPlayhead(s, tf, tr, float64(buf.SampleRate), width, height)

	return playing
}

func (r *Renderer) drawWaveform(s Surface, tf *view.Transform, data []float32, width, height int) {
	s.SetStrokeColor(r.Palette.Waveform)
	s.BeginPath()
	for x := 0; x < width; x++ {
		idx := int(math.Floor(tf.PixelToSample(float64(x))))
		if idx >= len(data) {
			break
		}
		y := (1 - float64(data[idx])) * float64(height) / 2
		if x == 0 {
			s.MoveTo(float64(x), y)
		} else {
			s.LineTo(float64(x), y)
		}
	}
	s.Stroke()
}

func (r *Renderer) drawPlayhead(s Surface, tf *view.Transform, tr *transport.Transport, sampleRate float64, width, height int) {
	x := tf.SampleToPixel(tr.CurrentTime() * sampleRate)
	if math.IsNaN(x) || x < 0 || x > float64(width) {
		return
	}

	color := r.Palette.Playhead
	if tr.Muted() {
		color = r.Palette.MutedPlayhead
	}
	s.SetStrokeColor(color)
	s.BeginPath()
	s.MoveTo(x, 0)
	s.LineTo(x, float64(height))
	s.Stroke()
	s.SetStrokeColor(r.Palette.Waveform)
}
