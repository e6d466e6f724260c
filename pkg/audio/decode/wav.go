// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE PCM files with go-audio/wav
package decode

import (
	"bytes"
	"fmt"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes WAV files
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode converts a WAV file to a Buffer
func (d *WAVDecoder) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, audio.Format{}, ErrInvalidFile
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, audio.Format{}, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to read wav data: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, audio.Format{}, ErrNoChannels
	}
	bitDepth := int(dec.BitDepth)

	frames := len(pcm.Data) / channels
	buf := audio.NewBuffer(int(dec.SampleRate), channels, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := pcm.Data[i*channels+ch]
			if bitDepth == 8 {
				// 8-bit WAV is unsigned
				v -= 128
			}
			buf.Channels[ch][i] = audio.SampleFromInt(v, bitDepth)
		}
	}
	return buf, audio.Format{
		Codec:      "wav",
		SampleRate: buf.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}
