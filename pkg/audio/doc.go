// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the decoded audio model shared by the decoders, the output engine
// and the waveform viewer.
//
// A Buffer keeps one float32 slice per channel (deinterleaved), normalised to [-1, 1]:
//
//	buf := audio.NewBuffer(44100, 2, 44100) // one second of stereo silence
//	left := buf.Channel(0)
//	seconds := buf.Duration()
//
// Conversion helpers turn integer PCM into the float range:
//
//	v := audio.SampleFromInt16(sample16)
//	w := audio.SampleFromInt(sample, 24)
package audio
