package soap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"convohealth-be/internal/pkg/logger"
	"convohealth-be/pkg/transcription"
)

// Generator turns an accepted transcript into a complete Note.
type Generator interface {
	Name() string
	Generate(ctx context.Context, transcript transcription.Transcript) (Note, error)
}

// GenerationError reports a failed note-generation attempt.
type GenerationError struct {
	Generator string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("note generation via %s: %v", e.Generator, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type Outcome struct {
	Note      Note
	Generator string
	FellBack  bool
	Cause     error
}

// Chain tries generators in order; the last one is expected never to fail.
type Chain struct {
	generators []Generator
	timeout    time.Duration
	logger     logger.ILogger
}

func NewChain(log logger.ILogger, timeout time.Duration, generators ...Generator) *Chain {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Chain{generators: generators, timeout: timeout, logger: log}
}

func (c *Chain) Generate(ctx context.Context, transcript transcription.Transcript) (Outcome, error) {
	if len(c.generators) == 0 {
		return Outcome{}, &GenerationError{Generator: "chain", Err: errors.New("no generators configured")}
	}

	var cause error
	for i, g := range c.generators {
		note, err := c.attempt(ctx, g, transcript, i == len(c.generators)-1)
		if err == nil {
			return Outcome{Note: note.Complete(), Generator: g.Name(), FellBack: i > 0, Cause: cause}, nil
		}

		var gerr *GenerationError
		if !errors.As(err, &gerr) {
			err = &GenerationError{Generator: g.Name(), Err: err}
		}
		cause = err
		c.logger.Warn("SoapNote", "Generator failed, trying next", map[string]interface{}{
			"generator": g.Name(),
			"error":     err.Error(),
		})
	}
	return Outcome{Cause: cause}, cause
}

func (c *Chain) attempt(ctx context.Context, g Generator, t transcription.Transcript, last bool) (Note, error) {
	if c.timeout <= 0 || last {
		return g.Generate(ctx, t)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return g.Generate(ctx, t)
}
