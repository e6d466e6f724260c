// ABOUTME: Audio type definitions
// ABOUTME: Defines decoded formats and the deinterleaved float buffer the viewer plays and draws
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes what a decoder found in the input
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer holds decoded audio as one float32 slice per channel, values in [-1, 1].
// Every channel has the same length. Buffers are read-only once decoded.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewBuffer allocates a silent buffer
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	planes := make([][]float32, channels)
	for ch := range planes {
		planes[ch] = make([]float32, frames)
	}
	return &Buffer{SampleRate: sampleRate, Channels: planes}
}

// Deinterleave splits interleaved samples into a Buffer. A trailing partial frame is dropped.
func Deinterleave(samples []float32, channels, sampleRate int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	buf := NewBuffer(sampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Channels[ch][i] = samples[i*channels+ch]
		}
	}
	return buf
}

// Len returns the number of frames (samples per channel)
func (b *Buffer) Len() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// NumChannels returns the channel count
func (b *Buffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.Channels)
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}

// Channel returns one channel's samples, or nil if it does not exist
func (b *Buffer) Channel(i int) []float32 {
	if b == nil || i < 0 || i >= len(b.Channels) {
		return nil
	}
	return b.Channels[i]
}

// Interleaved returns all channels interleaved, starting at frame from
func (b *Buffer) Interleaved(from int) []float32 {
	n := b.Len()
	if from < 0 {
		from = 0
	}
	if from >= n {
		return nil
	}
	channels := b.NumChannels()
	out := make([]float32, (n-from)*channels)
	for i := from; i < n; i++ {
		base := (i - from) * channels
		for ch := 0; ch < channels; ch++ {
			out[base+ch] = b.Channels[ch][i]
		}
	}
	return out
}

// SampleFromInt16 converts a 16-bit sample to float in [-1, 1)
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768.0
}

// SampleFromInt converts an integer sample of the given bit depth to float in [-1, 1)
func SampleFromInt(sample int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(sample) / 128.0
	case 16:
		return float32(sample) / 32768.0
	case 24:
		return float32(sample) / 8388608.0
	case 32:
		return float32(float64(sample) / 2147483648.0)
	default:
		return float32(sample) / 32768.0
	}
}

// SampleFrom24Bit converts 24-bit packed bytes (little-endian) to float
func SampleFrom24Bit(b [3]byte) float32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return float32(val) / 8388608.0
}

// Clamp limits a sample to [-1, 1]
func Clamp(sample float32) float32 {
	if sample > 1 {
		return 1
	}
	if sample < -1 {
		return -1
	}
	return sample
}
