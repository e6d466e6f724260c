// ABOUTME: Test helpers that generate audio buffers and encoded WAV files
// ABOUTME: Shared by decoder, transport and viewer tests
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// Sine returns a mono buffer holding a sine wave
func Sine(sampleRate, frames int, frequency float64) *audio.Buffer {
	buf := audio.NewBuffer(sampleRate, 1, frames)
	for i := range buf.Channels[0] {
		t := float64(i) / float64(sampleRate)
		buf.Channels[0][i] = float32(math.Sin(2 * math.Pi * frequency * t))
	}
	return buf
}

// Ramp returns a mono buffer rising linearly from -1 to 1
func Ramp(sampleRate, frames int) *audio.Buffer {
	buf := audio.NewBuffer(sampleRate, 1, frames)
	if frames < 2 {
		return buf
	}
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = float32(-1 + 2*float64(i)/float64(frames-1))
	}
	return buf
}

// Constant returns a buffer with every sample set to value
func Constant(sampleRate, channels, frames int, value float32) *audio.Buffer {
	buf := audio.NewBuffer(sampleRate, channels, frames)
	for ch := range buf.Channels {
		for i := range buf.Channels[ch] {
			buf.Channels[ch][i] = value
		}
	}
	return buf
}

// WAV encodes interleaved 16-bit samples as a WAV file and returns its bytes
func WAV(t testing.TB, sampleRate, channels int, samples []int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav fixture: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write wav fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalize wav fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close wav fixture: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read wav fixture: %v", err)
	}
	return data
}

// WAVFile writes a WAV fixture into dir and returns its path
func WAVFile(t testing.TB, dir string, sampleRate, channels int, samples []int) string {
	t.Helper()
	path := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(path, WAV(t, sampleRate, channels, samples), 0o644); err != nil {
		t.Fatalf("failed to write wav file: %v", err)
	}
	return path
}
