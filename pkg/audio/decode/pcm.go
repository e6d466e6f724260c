// ABOUTME: Raw PCM audio decoder
// ABOUTME: Decodes headerless 16-bit and 24-bit little-endian PCM with a caller-supplied format
package decode

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// PCMDecoder decodes headerless PCM audio
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if format.Channels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("invalid pcm format: %dHz %dch", format.SampleRate, format.Channels)
	}

	return &PCMDecoder{format: format}, nil
}

// ParsePCMFormat parses "rate:channels:bits", e.g. "44100:2:16"
func ParsePCMFormat(s string) (audio.Format, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return audio.Format{}, fmt.Errorf("invalid pcm format %q: want rate:channels:bits", s)
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return audio.Format{}, fmt.Errorf("invalid pcm format %q: %w", s, err)
		}
		values[i] = v
	}

	return audio.Format{
		Codec:      "pcm",
		SampleRate: values[0],
		Channels:   values[1],
		BitDepth:   values[2],
	}, nil
}

// Decode converts PCM bytes to a Buffer
func (d *PCMDecoder) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	var samples []float32
	if d.format.BitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		numSamples := len(data) / 3
		samples = make([]float32, numSamples)
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.SampleFrom24Bit([3]byte{data[i*3], data[i*3+1], data[i*3+2]})
		}
	} else {
		// 16-bit PCM: 2 bytes per sample
		numSamples := len(data) / 2
		samples = make([]float32, numSamples)
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
		}
	}
	return audio.Deinterleave(samples, d.format.Channels, d.format.SampleRate), d.format, nil
}
