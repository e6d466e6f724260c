// ABOUTME: Decoder interface, registry and container sniffing
// ABOUTME: Entry point that picks a decoder from the file's magic bytes
package decode

import (
	"bytes"
	"sync"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// Decoder decodes a complete encoded file into a Buffer
type Decoder interface {
	// Decode converts encoded audio data to a deinterleaved float buffer
	Decode(data []byte) (*audio.Buffer, audio.Format, error)
}

// Registry maps codec names to decoders
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

// NewRegistry creates a registry with every built-in container decoder
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Decoder)}
	r.Register("wav", NewWAV())
	r.Register("mp3", NewMP3())
	r.Register("flac", NewFLAC())
	r.Register("vorbis", NewVorbis())
	r.Register("opus", NewOpus())
	return r
}

// Register adds or replaces the decoder for a codec
func (r *Registry) Register(codec string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[codec] = d
}

// Get returns the decoder for a codec
func (r *Registry) Get(codec string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[codec]
	return d, ok
}

// Decode sniffs the container and decodes it
func (r *Registry) Decode(data []byte) (*audio.Buffer, audio.Format, error) {
	if len(data) == 0 {
		return nil, audio.Format{}, &DecodeError{Err: ErrEmptyInput}
	}

	codec := Sniff(data)
	if codec == "" {
		return nil, audio.Format{}, &DecodeError{Err: ErrUnsupportedFormat}
	}

	d, ok := r.Get(codec)
	if !ok {
		return nil, audio.Format{}, &DecodeError{Codec: codec, Err: ErrUnsupportedFormat}
	}

	buf, format, err := d.Decode(data)
	if err != nil {
		return nil, audio.Format{}, decodeError(codec, err)
	}
	if buf.NumChannels() == 0 {
		return nil, audio.Format{}, &DecodeError{Codec: codec, Err: ErrNoChannels}
	}
	return buf, format, nil
}

// Sniff identifies the container from its leading bytes. Returns "" when unknown.
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "wav"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "flac"
	case bytes.HasPrefix(data, []byte("OggS")):
		// The codec id lives in the first packet of the first page
		head := data
		if len(head) > 512 {
			head = head[:512]
		}
		if bytes.Contains(head, []byte("OpusHead")) {
			return "opus"
		}
		if bytes.Contains(head, []byte("\x01vorbis")) {
			return "vorbis"
		}
		return ""
	case bytes.HasPrefix(data, []byte("ID3")):
		return "mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	}
	return ""
}
