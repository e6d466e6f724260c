// ABOUTME: Audio transport interface definition
// ABOUTME: Playback segments over a decoded buffer, a shared gain and a monotonic clock
package output

import "github.com/Resonate-Protocol/waveview/pkg/audio"

// Engine plays buffers. All segments share one gain and one clock.
type Engine interface {
	// NewSegment prepares a playback segment for buf; it stays silent until Start
	NewSegment(buf *audio.Buffer) Segment

	// SetGain sets the shared output gain (0 = silent, 1 = unity)
	SetGain(gain float64)

	// Gain returns the shared output gain
	Gain() float64

	// Now returns the engine clock in seconds. It never goes backwards.
	Now() float64

	// Close stops every segment and releases the device
	Close() error
}

// Segment is one playback of a buffer from a start offset until Stop or the buffer's end
type Segment interface {
	// Start begins playback at atSeconds into the buffer
	Start(atSeconds float64) error

	// Stop halts playback. Calling Stop more than once is harmless.
	Stop()
}
