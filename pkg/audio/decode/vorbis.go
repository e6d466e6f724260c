// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Ogg Vorbis files with jfreymuth/oggvorbis
package decode

import (
	"bytes"
	"fmt"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis audio
type VorbisDecoder struct{}

// NewVorbis creates a new Vorbis decoder
func NewVorbis() *VorbisDecoder {
	return &VorbisDecoder{}
}

// Decode converts Ogg Vorbis bytes to a Buffer
func (d *VorbisDecoder) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("vorbis decode failed: %w", err)
	}
	if format.Channels < 1 {
		return nil, audio.Format{}, ErrNoChannels
	}
	buf := audio.Deinterleave(samples, format.Channels, format.SampleRate)
	return buf, audio.Format{
		Codec:      "vorbis",
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}
