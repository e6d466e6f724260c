// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio with go-mp3 (always 16-bit stereo output)
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode converts MP3 bytes to a Buffer
func (d *MP3Decoder) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	// go-mp3 outputs interleaved int16 stereo
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("mp3 decode error: %w", err)
	}

	const channels = 2
	numSamples := len(pcm) / 2
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	buf := audio.Deinterleave(samples, channels, decoder.SampleRate())
	return buf, audio.Format{
		Codec:      "mp3",
		SampleRate: buf.SampleRate,
		Channels:   channels,
		BitDepth:   16,
	}, nil
}
