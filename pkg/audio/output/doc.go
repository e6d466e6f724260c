// ABOUTME: Audio output package for playing decoded buffers
// ABOUTME: Provides the Engine/Segment interfaces with oto and silent implementations
// Package output provides the audio transport used by the viewer.
//
// An Engine creates playback segments over a buffer, applies one shared gain to all of
// them and exposes a monotonic clock. Oto drives a real device; Null is silent.
//
// Example:
//
//	engine, err := output.NewOto(48000, 2)
//	seg := engine.NewSegment(buf)
//	err = seg.Start(1.5)
//	engine.SetGain(0) // mute
//	seg.Stop()
package output
