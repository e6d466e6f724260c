// ABOUTME: Pixel <-> sample transform for the waveform view
// ABOUTME: Holds zoom, scroll offset and the scroll control state that mirrors them
package view

import "math"

// Zoom factors applied per wheel notch
const (
	ZoomInFactor  = 1.01
	ZoomOutFactor = 0.99
)

// PanFraction is the share of the visible window one arrow key press moves
const PanFraction = 0.1

// ScrollControl mirrors the horizontal slider widget. Value is offset/maxOffset.
type ScrollControl struct {
	Value    float64
	Disabled bool
}

// Transform maps pixel columns to absolute sample indices and back.
//
// zoom 1 fits the whole buffer in the viewport; offset is the first visible sample
// and always stays within [0, MaxOffset].
type Transform struct {
	length    int // N, frames in the buffer
	width     int // viewport width in pixels
	zoom      float64
	offset    float64
	maxOffset float64
	scroll    ScrollControl
}

// New creates a transform with nothing loaded
func New(width int) *Transform {
	t := &Transform{width: width, zoom: 1}
	t.sync()
	return t
}

// Reset installs a new buffer length and returns to the fit-whole-buffer view
func (t *Transform) Reset(length int) {
	t.length = length
	t.zoom = 1
	t.offset = 0
	t.scroll.Value = 0
	t.sync()
}

// SetWidth updates the viewport width; zoom and offset are untouched
func (t *Transform) SetWidth(width int) {
	if width < 0 {
		width = 0
	}
	t.width = width
	t.sync()
}

// Length returns N
func (t *Transform) Length() int { return t.length }

// Width returns the viewport width in pixels
func (t *Transform) Width() int { return t.width }

// Zoom returns the zoom factor (>= 1)
func (t *Transform) Zoom() float64 { return t.zoom }

// Offset returns the first visible sample
func (t *Transform) Offset() float64 { return t.offset }

// MaxOffset returns the largest allowed offset
func (t *Transform) MaxOffset() float64 { return t.maxOffset }

// Scroll returns the scroll control state
func (t *Transform) Scroll() ScrollControl { return t.scroll }

// Valid reports whether pixel/sample conversion is defined
func (t *Transform) Valid() bool {
	return t.length > 0 && t.width > 0
}

// VisibleSamples returns how many samples fit the viewport at the current zoom
func (t *Transform) VisibleSamples() float64 {
	return float64(t.length) / t.zoom
}

// SamplesPerPixel returns N / (width * zoom), or 0 when the transform is undefined
func (t *Transform) SamplesPerPixel() float64 {
	if !t.Valid() {
		return 0
	}
	return float64(t.length) / (float64(t.width) * t.zoom)
}

// PixelToSample converts a pixel column to an absolute (fractional) sample index
func (t *Transform) PixelToSample(x float64) float64 {
	return t.offset + x*t.SamplesPerPixel()
}

// SampleToPixel converts an absolute sample index to a pixel column
func (t *Transform) SampleToPixel(s float64) float64 {
	spp := t.SamplesPerPixel()
	if spp == 0 {
		return math.NaN()
	}
	return (s - t.offset) / spp
}

// ZoomBy multiplies the zoom, never going below the fit-whole-buffer level
func (t *Transform) ZoomBy(factor float64) {
	t.zoom = math.Max(1, t.zoom*factor)
	t.sync()
}

// ScrollTo moves the view to fraction of MaxOffset. The caller re-renders.
func (t *Transform) ScrollTo(fraction float64) {
	fraction = clamp(fraction, 0, 1)
	t.offset = fraction * t.maxOffset
	t.scroll.Value = fraction
}

// PanBy moves the view by deltaSamples, clamped to [0, MaxOffset], and resyncs the scroll control
func (t *Transform) PanBy(deltaSamples float64) {
	t.offset = clamp(t.offset+deltaSamples, 0, t.maxOffset)
	t.scroll.Value = t.ratio()
}

// PanWindows moves the view by a fraction of the visible window (negative pans backward)
func (t *Transform) PanWindows(fraction float64) {
	t.PanBy(fraction * t.VisibleSamples())
}

// sync recomputes MaxOffset, re-clamps the offset and updates the scroll control.
// The control value only moves when the offset had to be clamped.
func (t *Transform) sync() {
	t.maxOffset = math.Max(0, float64(t.length)-float64(t.length)/t.zoom)
	if t.offset > t.maxOffset {
		t.offset = t.maxOffset
		t.scroll.Value = t.ratio()
	}
	if t.offset < 0 {
		t.offset = 0
	}
	t.scroll.Disabled = t.maxOffset == 0
}

func (t *Transform) ratio() float64 {
	if t.maxOffset == 0 {
		return 0
	}
	return t.offset / t.maxOffset
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
