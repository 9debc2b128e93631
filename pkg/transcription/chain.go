package transcription

import (
	"context"
	"errors"
	"time"

	"convohealth-be/internal/pkg/logger"
)

// Outcome describes which provider produced the accepted transcript.
type Outcome struct {
	Transcript Transcript
	Provider   string
	FellBack   bool
	Cause      error
}

// Chain tries providers in order and accepts the first valid transcript. The
// last provider is expected to be deterministic and never fail.
type Chain struct {
	providers []Transcriber
	timeout   time.Duration
	logger    logger.ILogger
}

func NewChain(log logger.ILogger, timeout time.Duration, providers ...Transcriber) *Chain {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Chain{providers: providers, timeout: timeout, logger: log}
}

// Transcribe runs the chain. An empty buffer skips straight to the final
// provider, which keeps the pipeline moving but is reported as degraded.
func (c *Chain) Transcribe(ctx context.Context, audio []byte) (Outcome, error) {
	if len(c.providers) == 0 {
		return Outcome{}, NewError("chain", errors.New("no providers configured"))
	}

	start := 0
	var cause error
	if len(audio) == 0 {
		start = len(c.providers) - 1
		cause = ErrNoAudio
	}

	for i := start; i < len(c.providers); i++ {
		p := c.providers[i]
		last := i == len(c.providers)-1

		transcript, err := c.attempt(ctx, p, audio, last)
		if err == nil {
			err = transcript.Validate()
		}
		if err == nil {
			return Outcome{
				Transcript: transcript,
				Provider:   p.Name(),
				FellBack:   i > 0,
				Cause:      cause,
			}, nil
		}

		var terr *Error
		if !errors.As(err, &terr) {
			err = NewError(p.Name(), err)
		}
		cause = err
		c.logger.Warn("Transcription", "Provider failed, trying next", map[string]interface{}{
			"provider": p.Name(),
			"error":    err.Error(),
		})
	}

	return Outcome{Cause: cause}, cause
}

func (c *Chain) attempt(ctx context.Context, p Transcriber, audio []byte, last bool) (Transcript, error) {
	if c.timeout <= 0 || last {
		return p.Transcribe(ctx, audio)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return p.Transcribe(ctx, audio)
}
