// ABOUTME: Tests for audio types
// ABOUTME: Tests buffer helpers and sample conversion functions
package audio

import "testing"

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float32
	}{
		{"zero", 0, 0},
		{"half", 16384, 0.5},
		{"negative half", -16384, -0.5},
		{"min", -32768, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestSampleFromInt(t *testing.T) {
	tests := []struct {
		name     string
		sample   int
		bitDepth int
		expected float32
	}{
		{"8-bit", 64, 8, 0.5},
		{"16-bit", -16384, 16, -0.5},
		{"24-bit", 4194304, 24, 0.5},
		{"32-bit", -1073741824, 32, -0.5},
		{"unknown depth falls back to 16", 16384, 12, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt(tt.sample, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected float32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"half", [3]byte{0x00, 0x00, 0x40}, 0.5},
		{"min", [3]byte{0x00, 0x00, 0x80}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestDeinterleave(t *testing.T) {
	buf := Deinterleave([]float32{0.1, -0.1, 0.2, -0.2, 0.3}, 2, 8000)

	if buf.Len() != 2 {
		t.Fatalf("expected 2 frames (partial frame dropped), got %d", buf.Len())
	}
	if buf.NumChannels() != 2 {
		t.Fatalf("expected 2 channels, got %d", buf.NumChannels())
	}
	if buf.Channel(0)[1] != 0.2 {
		t.Errorf("expected left[1]=0.2, got %f", buf.Channel(0)[1])
	}
	if buf.Channel(1)[0] != -0.1 {
		t.Errorf("expected right[0]=-0.1, got %f", buf.Channel(1)[0])
	}
}

func TestInterleavedFromOffset(t *testing.T) {
	buf := Deinterleave([]float32{1, 2, 3, 4, 5, 6}, 2, 8000)

	out := buf.Interleaved(1)
	expected := []float32{3, 4, 5, 6}
	if len(out) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(out))
	}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("sample %d: expected %f, got %f", i, expected[i], out[i])
		}
	}

	if buf.Interleaved(3) != nil {
		t.Error("expected nil when starting past the end")
	}
}

func TestBufferDuration(t *testing.T) {
	buf := NewBuffer(44100, 1, 22050)
	if buf.Duration() != 0.5 {
		t.Errorf("expected 0.5s, got %f", buf.Duration())
	}

	var empty *Buffer
	if empty.Len() != 0 || empty.Duration() != 0 {
		t.Error("nil buffer should report zero length and duration")
	}
	if empty.Channel(0) != nil {
		t.Error("nil buffer should have no channels")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(1.5) != 1 || Clamp(-2) != -1 || Clamp(0.25) != 0.25 {
		t.Error("clamp did not limit samples to [-1, 1]")
	}
}
