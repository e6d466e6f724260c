// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Ogg Opus files with hraban/opus streams (always 48kHz)
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz regardless of the original input rate
const opusSampleRate = 48000

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus() *OpusDecoder {
	return &OpusDecoder{}
}

// Decode converts Ogg Opus bytes to a Buffer
func (d *OpusDecoder) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	channels, err := opusChannels(data)
	if err != nil {
		return nil, audio.Format{}, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	// 120ms at 48kHz is the largest Opus frame
	pcm := make([]float32, 5760*channels)
	var samples []float32
	for {
		n, err := stream.ReadFloat32(pcm)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, audio.Format{}, fmt.Errorf("opus decode failed: %w", err)
		}
		samples = append(samples, pcm[:n*channels]...)
	}

	buf := audio.Deinterleave(samples, channels, opusSampleRate)
	return buf, audio.Format{
		Codec:      "opus",
		SampleRate: opusSampleRate,
		Channels:   channels,
		BitDepth:   16,
	}, nil
}

// opusChannels reads the channel count from the OpusHead identification header
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(data) {
		return 0, fmt.Errorf("%w: missing OpusHead", ErrInvalidFile)
	}
	channels := int(data[idx+9])
	if channels < 1 {
		return 0, ErrNoChannels
	}
	return channels, nil
}
