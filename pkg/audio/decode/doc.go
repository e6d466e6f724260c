// ABOUTME: Audio decoder package for multiple container support
// ABOUTME: Provides Decoder interface and implementations for WAV, MP3, FLAC, Ogg Vorbis, Ogg Opus, raw PCM
// Package decode turns encoded audio files into audio.Buffer values.
//
// Supports: WAV (PCM 8/16/24/32-bit), MP3, FLAC, Ogg Vorbis, Ogg Opus and headerless PCM.
//
// A Registry sniffs the container from its magic bytes; every failure is reported as a
// *DecodeError so callers can tell bad input apart from I/O problems. Headerless PCM
// carries no magic, so it is decoded with an explicit format instead:
//
//	buf, format, err := decode.NewRegistry().Decode(data)
//	var decErr *decode.DecodeError
//	if errors.As(err, &decErr) { ... }
//
//	format, err := decode.ParsePCMFormat("44100:2:16")
//	pcm, err := decode.NewPCM(format)
package decode
