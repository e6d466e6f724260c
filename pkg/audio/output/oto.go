// ABOUTME: Oto-based audio output implementation
// ABOUTME: One oto context per process; each segment is an oto player over the prepared buffer
package output

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/resample"
	"github.com/ebitengine/oto/v3"
)

const bytesPerSample = 4 // float32 LE

// outputLatency bounds the device buffer and each player's read-ahead
const outputLatency = 40 * time.Millisecond

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	sampleRate int
	channels   int
	gain       float64
	clockStart time.Time
	live       map[*otoSegment]struct{}

	// Conversion of the most recent buffer, reused across segments (seeks, pause/resume)
	preparedFor *audio.Buffer
	prepared    []byte
}

// NewOto opens the audio device. oto allows a single context per process, so the
// device format is fixed here and buffers are converted to it.
func NewOto(sampleRate, channels int) (*Oto, error) {
	ctx, readyChan, err := oto.NewContext(contextOptions(sampleRate, channels))
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return &Oto{
		otoCtx:     ctx,
		sampleRate: sampleRate,
		channels:   channels,
		gain:       1.0,
		clockStart: time.Now(),
		live:       make(map[*otoSegment]struct{}),
	}, nil
}

func contextOptions(sampleRate, channels int) *oto.NewContextOptions {
	return &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   outputLatency,
	}
}

// latencyBytes is outputLatency expressed in whole frames of device PCM
func latencyBytes(sampleRate, channels int) int {
	frames := int(int64(sampleRate) * int64(outputLatency) / int64(time.Second))
	return frames * channels * bytesPerSample
}

// NewSegment prepares a segment for buf
func (o *Oto) NewSegment(buf *audio.Buffer) Segment {
	return &otoSegment{engine: o, buf: buf}
}

// SetGain sets the gain on every live player and on players created later
func (o *Oto) SetGain(gain float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.gain = gain
	for seg := range o.live {
		if seg.player != nil {
			seg.player.SetVolume(gain)
		}
	}
	log.Printf("Output gain set to %.2f", gain)
}

// Gain returns the shared gain
func (o *Oto) Gain() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gain
}

// Now returns seconds since the device was opened, read from the monotonic clock.
// Buffered output is not subtracted: the device and the player each hold at most
// outputLatency, so the playhead can lead what is heard by up to twice that.
func (o *Oto) Now() float64 {
	return time.Since(o.clockStart).Seconds()
}

// Close stops all segments and suspends the device
func (o *Oto) Close() error {
	o.mu.Lock()
	segments := make([]*otoSegment, 0, len(o.live))
	for seg := range o.live {
		segments = append(segments, seg)
	}
	o.mu.Unlock()

	for _, seg := range segments {
		seg.Stop()
	}

	if err := o.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend audio context: %w", err)
	}
	return nil
}

// pcmFor returns buf converted to the device format, caching the last conversion
func (o *Oto) pcmFor(buf *audio.Buffer) []byte {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.preparedFor != buf {
		o.prepared = Prepare(buf, o.sampleRate, o.channels)
		o.preparedFor = buf
	}
	return o.prepared
}

type otoSegment struct {
	engine *Oto
	buf    *audio.Buffer
	player *oto.Player
}

// Start begins playback atSeconds into the buffer
func (s *otoSegment) Start(atSeconds float64) error {
	if s.player != nil {
		return fmt.Errorf("segment already started")
	}

	pcm := s.engine.pcmFor(s.buf)
	frameBytes := s.engine.channels * bytesPerSample
	offset := int(math.Round(atSeconds*float64(s.engine.sampleRate))) * frameBytes
	if offset < 0 {
		offset = 0
	}
	if offset > len(pcm) {
		offset = len(pcm)
	}

	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	s.player = s.engine.otoCtx.NewPlayer(bytes.NewReader(pcm[offset:]))
	s.player.SetBufferSize(latencyBytes(s.engine.sampleRate, s.engine.channels))
	s.player.SetVolume(s.engine.gain)
	s.player.Play()
	s.engine.live[s] = struct{}{}

	return nil
}

// Stop halts playback and releases the player
func (s *otoSegment) Stop() {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	if s.player == nil {
		return
	}
	if _, ok := s.engine.live[s]; !ok {
		return
	}
	delete(s.engine.live, s)

	s.player.Pause()
	if err := s.player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}
}

// Prepare converts buf to interleaved float32 LE bytes at sampleRate with the given
// channel count. Mono is copied to every output channel; extra channels are dropped.
func Prepare(buf *audio.Buffer, sampleRate, channels int) []byte {
	if buf.Len() == 0 || channels < 1 {
		return nil
	}

	converted := resample.Buffer(buf, sampleRate)
	mapped := &audio.Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for ch := range mapped.Channels {
		src := ch
		if src >= converted.NumChannels() {
			src = converted.NumChannels() - 1
		}
		mapped.Channels[ch] = converted.Channels[src]
	}

	samples := mapped.Interleaved(0)
	out := make([]byte, len(samples)*bytesPerSample)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(audio.Clamp(sample)))
	}
	return out
}
