// ABOUTME: Decoder error types
// ABOUTME: DecodeError wraps malformed or unsupported input with the codec that rejected it
package decode

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidFile       = errors.New("invalid file")
	ErrNoChannels        = errors.New("stream has no channels")
)

// DecodeError reports input that could not be decoded
type DecodeError struct {
	Codec string // empty when the container could not be identified
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Codec == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(codec string, err error) error {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return err
	}
	return &DecodeError{Codec: codec, Err: err}
}
