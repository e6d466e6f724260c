// ABOUTME: Silent audio output
// ABOUTME: Keeps segment and gain bookkeeping without a device, for -no-audio and tests
package output

import (
	"sync"
	"time"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// Null is an Engine that produces no sound. Its clock is the monotonic wall clock
// unless Clock is set.
type Null struct {
	// Clock overrides the time source (seconds); used by tests to step time manually
	Clock func() float64

	mu         sync.Mutex
	gain       float64
	clockStart time.Time
	live       map[*nullSegment]struct{}
	started    []float64
}

// NewNull creates a silent engine
func NewNull() *Null {
	return &Null{
		gain:       1.0,
		clockStart: time.Now(),
		live:       make(map[*nullSegment]struct{}),
	}
}

// NewSegment returns a segment that only records its state
func (n *Null) NewSegment(buf *audio.Buffer) Segment {
	return &nullSegment{engine: n}
}

// SetGain records the gain
func (n *Null) SetGain(gain float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gain = gain
}

// Gain returns the recorded gain
func (n *Null) Gain() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gain
}

// Now returns the clock reading in seconds
func (n *Null) Now() float64 {
	if n.Clock != nil {
		return n.Clock()
	}
	return time.Since(n.clockStart).Seconds()
}

// Close stops every live segment
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.live = make(map[*nullSegment]struct{})
	return nil
}

// Live returns how many segments are currently playing
func (n *Null) Live() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.live)
}

// Starts returns the start offsets of every segment started so far
func (n *Null) Starts() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]float64(nil), n.started...)
}

type nullSegment struct {
	engine *Null
}

func (s *nullSegment) Start(atSeconds float64) error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	s.engine.live[s] = struct{}{}
	s.engine.started = append(s.engine.started, atSeconds)
	return nil
}

func (s *nullSegment) Stop() {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	delete(s.engine.live, s)
}
