// ABOUTME: Playback transport state machine
// ABOUTME: Tracks logical position against the audio clock and owns the single live segment
package transport

import (
	"log"
	"math"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
)

// Transport is Stopped or Playing. While playing, the position is derived from the
// engine clock each time it is read, so it never accumulates drift.
type Transport struct {
	engine output.Engine
	buf    *audio.Buffer

	segment         output.Segment // non-nil exactly while playing
	anchorClockTime float64        // engine clock when the segment started
	playStartOffset float64        // seconds; the position while stopped
	muted           bool
}

// New creates a stopped transport with nothing loaded
func New(engine output.Engine) *Transport {
	return &Transport{engine: engine}
}

// Load stops playback and swaps in buf, rewinding to 0
func (t *Transport) Load(buf *audio.Buffer) {
	t.Stop()
	t.buf = buf
}

// Buffer returns the loaded buffer (nil before the first load)
func (t *Transport) Buffer() *audio.Buffer {
	return t.buf
}

// Duration returns the loaded buffer's length in seconds
func (t *Transport) Duration() float64 {
	return t.buf.Duration()
}

// IsPlaying reports whether a segment is live
func (t *Transport) IsPlaying() bool {
	return t.segment != nil
}

// Muted reports the mute state
func (t *Transport) Muted() bool {
	return t.muted
}

// Play starts a new segment at startSeconds, stopping any live one first.
// Callers clamp startSeconds to [0, Duration()]. No-op with nothing loaded.
func (t *Transport) Play(startSeconds float64) {
	if t.buf == nil {
		return
	}
	if t.segment != nil {
		t.segment.Stop()
		t.segment = nil
	}

	seg := t.engine.NewSegment(t.buf)
	if err := seg.Start(startSeconds); err != nil {
		log.Printf("Failed to start playback at %.3fs: %v", startSeconds, err)
		t.playStartOffset = startSeconds
		return
	}

	t.segment = seg
	t.anchorClockTime = t.engine.Now()
	t.playStartOffset = startSeconds
}

// Stop halts playback and rewinds to 0
func (t *Transport) Stop() {
	if t.segment != nil {
		t.segment.Stop()
		t.segment = nil
	}
	t.playStartOffset = 0
}

// Pause halts playback and keeps the position
func (t *Transport) Pause() {
	if t.segment == nil {
		return
	}
	position := t.CurrentTime()
	t.segment.Stop()
	t.segment = nil
	t.playStartOffset = position
}

// Toggle pauses while playing, otherwise resumes from the kept position
func (t *Transport) Toggle() {
	if t.segment != nil {
		t.Pause()
		return
	}
	t.Play(t.playStartOffset)
}

// ToggleMute flips mute and sets the shared gain; playback state is untouched
func (t *Transport) ToggleMute() {
	t.muted = !t.muted
	if t.muted {
		t.engine.SetGain(0)
	} else {
		t.engine.SetGain(1)
	}
}

// CurrentTime returns the playback position in seconds, never past the buffer's end
func (t *Transport) CurrentTime() float64 {
	return math.Min(t.rawTime(), t.Duration())
}

// CheckEnd ends the segment once the position reaches the end of the buffer and
// rewinds to 0. Returns true when that transition happened.
func (t *Transport) CheckEnd() bool {
	if t.segment == nil || t.buf == nil {
		return false
	}
	if t.rawTime()*float64(t.buf.SampleRate) < float64(t.buf.Len()) {
		return false
	}

	t.segment.Stop()
	t.segment = nil
	t.playStartOffset = 0
	return true
}

// Close stops any live segment
func (t *Transport) Close() {
	t.Stop()
}

func (t *Transport) rawTime() float64 {
	if t.segment == nil {
		return t.playStartOffset
	}
	return t.engine.Now() - t.anchorClockTime + t.playStartOffset
}
