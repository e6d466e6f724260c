// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC audio frame by frame with mewkiz/flac
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() *FLACDecoder {
	return &FLACDecoder{}
}

// Decode converts FLAC bytes to a Buffer
func (d *FLACDecoder) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return nil, audio.Format{}, ErrNoChannels
	}
	bitDepth := int(stream.Info.BitsPerSample)

	planes := make([][]float32, channels)
	if total := int(stream.Info.NSamples); total > 0 {
		for ch := range planes {
			planes[ch] = make([]float32, 0, total)
		}
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, audio.Format{}, fmt.Errorf("flac frame error: %w", err)
		}
		for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
			for _, s := range frame.Subframes[ch].Samples {
				planes[ch] = append(planes[ch], audio.SampleFromInt(int(s), bitDepth))
			}
		}
	}

	buf := &audio.Buffer{SampleRate: int(stream.Info.SampleRate), Channels: planes}
	return buf, audio.Format{
		Codec:      "flac",
		SampleRate: buf.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}
