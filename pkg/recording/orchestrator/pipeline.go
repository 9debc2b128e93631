package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"
	"convohealth-be/pkg/transcription/fallback"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (o *Orchestrator) process(ctx context.Context, audio []byte, duration int, run *pipelineRun) {
	defer close(run.done)

	ctx, span := o.tracer.Start(ctx, "recording.pipeline", trace.WithAttributes(
		attribute.String("session.id", o.id),
		attribute.Int("audio.bytes", len(audio)),
		attribute.Int("duration.seconds", duration),
	))
	defer span.End()

	result := Result{DurationSeconds: duration}

	o.setPhase(PhaseTranscribing)
	transcript, provider, notices := o.transcribe(ctx, audio)
	result.Transcript = transcript
	result.TranscriptionProvider = provider
	result.Notices = append(result.Notices, notices...)

	o.setPhase(PhaseAnalyzing)
	o.analyze(ctx)

	o.setPhase(PhaseGenerating)
	note, generator, notices := o.generate(ctx, transcript)
	result.Note = note
	result.NoteGenerator = generator
	result.Notices = append(result.Notices, notices...)

	run.result = result
	o.mu.Lock()
	o.result = &result
	o.status = StatusComplete
	o.phase = PhaseComplete
	o.mu.Unlock()

	o.metrics.SessionsCompleted.Inc()
	o.metrics.SessionsActive.Dec()
	o.logger.Info("Recording", "Pipeline complete", map[string]interface{}{
		"session_id":     o.id,
		"transcriber":    provider,
		"note_generator": generator,
		"segments":       len(transcript),
		"notices":        len(result.Notices),
	})
	o.emit(Event{Type: EventComplete, Status: StatusComplete, Phase: PhaseComplete, ElapsedSeconds: float64(duration)})
}

// transcribe always returns a valid transcript. When the chain itself fails
// or panics, the fixed fallback transcript is substituted.
func (o *Orchestrator) transcribe(ctx context.Context, audio []byte) (transcription.Transcript, string, []Notice) {
	ctx, span := o.tracer.Start(ctx, "recording.transcribe")
	defer span.End()
	started := time.Now()

	out, err := safeCall(func() (transcription.Outcome, error) {
		return o.transcriber.Transcribe(ctx, audio)
	})
	if err == nil {
		err = out.Transcript.Validate()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("Recording", "Transcription chain failed, using fallback transcript", map[string]interface{}{
			"session_id": o.id,
			"error":      err.Error(),
		})
		out = transcription.Outcome{
			Transcript: fallback.Transcript(),
			Provider:   fallback.Name,
			FellBack:   true,
			Cause:      err,
		}
		if len(audio) == 0 {
			out.Cause = transcription.ErrNoAudio
		}
	}

	span.SetAttributes(attribute.String("provider", out.Provider), attribute.Bool("fallback", out.FellBack))
	o.metrics.StageLatency.WithLabelValues("transcribe", out.Provider).Observe(time.Since(started).Seconds())

	var notices []Notice
	if errors.Is(out.Cause, transcription.ErrNoAudio) {
		notices = append(notices, Notice{
			Kind:    NoticeEmptyAudio,
			Message: "No audio was captured. The transcript below is an illustrative example, not your conversation.",
		})
	} else if out.FellBack {
		notices = append(notices, Notice{
			Kind:    NoticeTranscriptionFallback,
			Message: "Transcription service unavailable. An illustrative transcript was used instead.",
		})
	}
	if out.FellBack {
		o.metrics.Fallbacks.WithLabelValues("transcribe", fallbackReason(out.Cause)).Inc()
	}
	for i := range notices {
		o.emit(Event{Type: EventNotice, Status: StatusProcessing, Phase: PhaseTranscribing, Notice: &notices[i]})
	}
	return out.Transcript, out.Provider, notices
}

func (o *Orchestrator) analyze(ctx context.Context) {
	if o.analyzingDelay <= 0 {
		return
	}
	_, span := o.tracer.Start(ctx, "recording.analyze")
	defer span.End()

	t := time.NewTimer(o.analyzingDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// generate always returns a complete note, falling back to the extractive
// summary if the chain fails or panics.
func (o *Orchestrator) generate(ctx context.Context, transcript transcription.Transcript) (soap.Note, string, []Notice) {
	ctx, span := o.tracer.Start(ctx, "recording.generate")
	defer span.End()
	started := time.Now()

	out, err := safeCall(func() (soap.Outcome, error) {
		return o.generator.Generate(ctx, transcript)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("Recording", "Note generation chain failed, using extractive note", map[string]interface{}{
			"session_id": o.id,
			"error":      err.Error(),
		})
		note, _ := soap.ExtractiveGenerator{}.Generate(ctx, transcript)
		out = soap.Outcome{Note: note, Generator: soap.ExtractiveGeneratorName, FellBack: true, Cause: err}
	}

	span.SetAttributes(attribute.String("generator", out.Generator), attribute.Bool("fallback", out.FellBack))
	o.metrics.StageLatency.WithLabelValues("generate", out.Generator).Observe(time.Since(started).Seconds())

	var notices []Notice
	if out.FellBack {
		o.metrics.Fallbacks.WithLabelValues("generate", fallbackReason(out.Cause)).Inc()
		notices = append(notices, Notice{
			Kind:    NoticeNoteFallback,
			Message: "Note service unavailable. The note was summarized directly from the transcript.",
		})
		o.emit(Event{Type: EventNotice, Status: StatusProcessing, Phase: PhaseGenerating, Notice: &notices[0]})
	}
	return out.Note.Complete(), out.Generator, notices
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	o.emit(Event{Type: EventPhase, Status: StatusProcessing, Phase: p})
}

func safeCall[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, transcription.ErrNoAudio):
		return "empty_audio"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, credential.ErrUnavailable), errors.Is(err, transcription.ErrNoCredential):
		return "no_credential"
	default:
		return "provider_error"
	}
}
