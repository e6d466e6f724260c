// ABOUTME: Input routing for the waveform viewer
// ABOUTME: Translates wheel, pointer, key and scroll control events into view and transport changes
package viewer

import (
	"log"

	"github.com/Resonate-Protocol/waveview/internal/view"
)

// Key names a key the viewer reacts to
type Key string

// Key bindings
const (
	KeyToggle Key = "space"
	KeyStop   Key = "esc"
	KeyRight  Key = "right"
	KeyLeft   Key = "left"
	KeyReport Key = "down"
)

// Wheel zooms out for positive deltaY and in otherwise. Each notch compounds.
func (v *Viewer) Wheel(deltaY float64) {
	if v.closed || !v.tf.Valid() {
		return
	}
	if deltaY > 0 {
		v.tf.ZoomBy(view.ZoomOutFactor)
	} else {
		v.tf.ZoomBy(view.ZoomInFactor)
	}
	v.Render()
}

// Click seeks to pixel column x and starts playback there
func (v *Viewer) Click(x float64) {
	if v.closed || !v.tf.Valid() {
		return
	}
	sample := v.tf.PixelToSample(x)
	v.Play(sample / float64(v.tr.Buffer().SampleRate))
}

// ContextClick toggles mute
func (v *Viewer) ContextClick() {
	v.ToggleMute()
}

// Key handles a key press and reports whether it was consumed
func (v *Viewer) Key(k Key) bool {
	if v.closed {
		return false
	}

	switch k {
	case KeyToggle:
		v.Toggle()
	case KeyStop:
		v.Stop()
	case KeyRight:
		v.pan(view.PanFraction)
	case KeyLeft:
		v.pan(-view.PanFraction)
	case KeyReport:
		v.readout = v.CurrentTime()
		v.hasReadout = true
		log.Printf("Position: %.3f", v.readout)
	default:
		return false
	}
	return true
}

// ScrollInput moves the view to fraction of the scrollable range
func (v *Viewer) ScrollInput(fraction float64) {
	if v.closed || v.tf.Scroll().Disabled {
		return
	}
	v.tf.ScrollTo(fraction)
	v.Render()
}

func (v *Viewer) pan(fraction float64) {
	if !v.tf.Valid() {
		return
	}
	v.tf.PanWindows(fraction)
	v.Render()
}
