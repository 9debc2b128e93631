package transcription

import (
	"context"
	"errors"
	"fmt"
)

// Transcriber converts a finished audio buffer into a Transcript.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte) (Transcript, error)
}

var (
	ErrNoAudio       = errors.New("audio buffer is empty")
	ErrNoCredential  = errors.New("no active credential")
	ErrBadResponse   = errors.New("malformed provider response")
	ErrProviderError = errors.New("provider returned an error status")
)

// Error is the TranscriptionError of a single provider attempt.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription via %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(provider string, err error) *Error {
	return &Error{Provider: provider, Err: err}
}
