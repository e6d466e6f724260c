// ABOUTME: Waveform viewer core
// ABOUTME: Owns the view transform and playback transport and exposes the embedding surface
package viewer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/Resonate-Protocol/waveview/internal/render"
	"github.com/Resonate-Protocol/waveview/internal/transport"
	"github.com/Resonate-Protocol/waveview/internal/view"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/decode"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
)

// ErrClosed is returned by Load after Close
var ErrClosed = errors.New("viewer closed")

// Viewer is a single-threaded state machine: every method must be called from the
// same goroutine (the UI event loop).
type Viewer struct {
	decoder  decode.Decoder
	surface  render.Surface
	renderer *render.Renderer
	tf       *view.Transform
	tr       *transport.Transport

	readout    float64
	hasReadout bool
	closed     bool
}

// New creates a viewer drawing onto surface and playing through engine
func New(engine output.Engine, decoder decode.Decoder, surface render.Surface) *Viewer {
	width, _ := surface.Size()
	return &Viewer{
		decoder:  decoder,
		surface:  surface,
		renderer: render.NewRenderer(),
		tf:       view.New(width),
		tr:       transport.New(engine),
	}
}

// Decode converts raw bytes into a buffer without touching viewer state.
// It is safe to call from another goroutine.
func (v *Viewer) Decode(data []byte) (*audio.Buffer, error) {
	buf, format, err := v.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	log.Printf("Decoded %s: %dHz, %d channels, %.3fs", format.Codec, buf.SampleRate, buf.NumChannels(), buf.Duration())
	return buf, nil
}

// Load stops playback, decodes data and installs the result. On a decode error the
// previously loaded buffer stays in place.
func (v *Viewer) Load(data []byte) error {
	if v.closed {
		return ErrClosed
	}
	v.Stop()

	buf, err := v.Decode(data)
	if err != nil {
		return err
	}
	v.Install(buf)
	return nil
}

// LoadReader reads r to the end and loads the bytes
func (v *Viewer) LoadReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}
	return v.Load(data)
}

// LoadFile loads the file at path
func (v *Viewer) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return v.Load(data)
}

// Install swaps in an already decoded buffer, resetting zoom and position
func (v *Viewer) Install(buf *audio.Buffer) {
	if v.closed || buf == nil {
		return
	}
	v.tr.Load(buf)
	v.tf.Reset(buf.Len())
	v.hasReadout = false
	v.Render()
}

// Loaded reports whether a buffer is installed
func (v *Viewer) Loaded() bool {
	return v.tr.Buffer() != nil
}

// Play starts playback at seconds, clamped to [0, duration]. No-op before a load.
func (v *Viewer) Play(seconds float64) {
	if v.closed || !v.Loaded() {
		return
	}
	if math.IsNaN(seconds) {
		seconds = 0
	}
	seconds = math.Max(0, math.Min(seconds, v.tr.Duration()))
	v.tr.Play(seconds)
	v.Render()
}

// Stop halts playback and rewinds to 0
func (v *Viewer) Stop() {
	if v.closed {
		return
	}
	v.tr.Stop()
	v.Render()
}

// Toggle pauses or resumes playback
func (v *Viewer) Toggle() {
	if v.closed {
		return
	}
	v.tr.Toggle()
	v.Render()
}

// ToggleMute flips mute without touching playback
func (v *Viewer) ToggleMute() {
	if v.closed {
		return
	}
	v.tr.ToggleMute()
	v.Render()
}

// IsPlaying reports whether a playback segment is live
func (v *Viewer) IsPlaying() bool {
	return v.tr.IsPlaying()
}

// Muted reports the mute state
func (v *Viewer) Muted() bool {
	return v.tr.Muted()
}

// CurrentTime returns the playback position in seconds
func (v *Viewer) CurrentTime() float64 {
	return v.tr.CurrentTime()
}

// Duration returns the loaded buffer's length in seconds (0 before a load)
func (v *Viewer) Duration() float64 {
	return v.tr.Duration()
}

// Scroll returns the scroll control state
func (v *Viewer) Scroll() view.ScrollControl {
	return v.tf.Scroll()
}

// Readout returns the last diagnostic position readout
func (v *Viewer) Readout() (float64, bool) {
	return v.readout, v.hasReadout
}

// Render draws one frame. It returns true when another frame should be scheduled.
func (v *Viewer) Render() bool {
	if v.closed {
		return false
	}
	return v.renderer.Frame(v.surface, v.tf, v.tr)
}

// Resize picks up the surface's current width and redraws. Zoom and offset are kept.
func (v *Viewer) Resize() {
	if v.closed {
		return
	}
	width, _ := v.surface.Size()
	v.tf.SetWidth(width)
	v.Render()
}

// Close stops playback; every later call is a no-op
func (v *Viewer) Close() {
	if v.closed {
		return
	}
	v.tr.Close()
	v.closed = true
}

// Closed reports whether Close was called
func (v *Viewer) Closed() bool {
	return v.closed
}

// State is a point-in-time copy of the viewer's observable state
type State struct {
	Loaded     bool
	Playing    bool
	Muted      bool
	Position   float64
	Duration   float64
	SampleRate int
	Frames     int
	Zoom       float64
	Offset     float64
	MaxOffset  float64
}

// Snapshot returns the current state
func (v *Viewer) Snapshot() State {
	s := State{
		Loaded:    v.Loaded(),
		Playing:   v.IsPlaying(),
		Muted:     v.Muted(),
		Position:  v.CurrentTime(),
		Duration:  v.Duration(),
		Zoom:      v.tf.Zoom(),
		Offset:    v.tf.Offset(),
		MaxOffset: v.tf.MaxOffset(),
	}
	if buf := v.tr.Buffer(); buf != nil {
		s.SampleRate = buf.SampleRate
		s.Frames = buf.Len()
	}
	return s
}
