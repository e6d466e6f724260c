// ABOUTME: Sample rate conversion package
// ABOUTME: Linear interpolation resampling for float32 audio
// Package resample converts audio between sample rates.
//
// The output engine uses it when a decoded file's rate differs from the rate the
// audio device was opened with:
//
//	converted := resample.Buffer(buf, 48000)
package resample
