package soap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"convohealth-be/pkg/llm"
	"convohealth-be/pkg/transcription"
	"convohealth-be/pkg/transcription/fallback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply   string
	err     error
	block   bool
	history []llm.Message
	options llm.Options
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.history = history
	s.options = llm.Apply(llm.Options{}, opts...)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func sampleTranscript() transcription.Transcript {
	return transcription.Transcript{
		{Id: "seg-1", Speaker: transcription.SpeakerDoctor, Text: "What brings you in?", StartTime: 0, EndTime: 2, Confidence: 0.9},
		{Id: "seg-2", Speaker: transcription.SpeakerPatient, Text: "I have a bad cough and a fever.", StartTime: 2.5, EndTime: 5, Confidence: 0.9},
		{Id: "seg-3", Speaker: transcription.SpeakerDoctor, Text: "Take rest and fluids.", StartTime: 5.5, EndTime: 7, Confidence: 0.9},
	}
}

func TestLLMGeneratorSendsTranscriptLines(t *testing.T) {
	stub := &stubLLM{reply: "SUBJECTIVE: cough\nOBJECTIVE: n/a\nASSESSMENT: viral\nPLAN: rest"}
	note, err := NewLLMGenerator(stub, 0.3, 800).Generate(context.Background(), sampleTranscript())
	require.NoError(t, err)

	assert.Equal(t, Note{Subjective: "cough", Objective: "n/a", Assessment: "viral", Plan: "rest"}, note)
	require.Len(t, stub.history, 2)
	assert.Equal(t, llm.RoleSystem, stub.history[0].Role)
	assert.Contains(t, stub.history[1].Content, "Patient: I have a bad cough and a fever.")
	assert.Equal(t, 800, stub.options.MaxTokens)
	assert.InDelta(t, 0.3, stub.options.Temperature, 1e-9)
}

func TestLLMGeneratorFailures(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubLLM
		transcript transcription.Transcript
	}{
		{"provider error", &stubLLM{err: errors.New("503")}, sampleTranscript()},
		{"unparseable", &stubLLM{reply: "Sorry, I can't do that."}, sampleTranscript()},
		{"empty transcript", &stubLLM{reply: "PLAN: x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMGenerator(tt.stub, 0.3, 100).Generate(context.Background(), tt.transcript)
			var gerr *GenerationError
			assert.ErrorAs(t, err, &gerr)
		})
	}
}

func TestExtractiveGenerator(t *testing.T) {
	note, err := ExtractiveGenerator{}.Generate(context.Background(), sampleTranscript())
	require.NoError(t, err)

	assert.Equal(t, "I have a bad cough and a fever.", note.Subjective)
	assert.Equal(t, ObjectivePlaceholder, note.Objective)
	assert.Equal(t, "Patient reports fever and cough. Further clinical evaluation is needed to confirm a diagnosis.", note.Assessment)
	assert.Equal(t, "What brings you in? Take rest and fluids.", note.Plan)
}

func TestExtractiveGeneratorWithoutDoctorOrSymptoms(t *testing.T) {
	transcript := transcription.Transcript{
		{Id: "seg-1", Speaker: transcription.SpeakerPatient, Text: "Just here for a checkup.", StartTime: 0, EndTime: 1, Confidence: 0.9},
	}
	note, err := ExtractiveGenerator{}.Generate(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, Plan.Placeholder(), note.Plan)
	assert.Equal(t, noFindings, note.Assessment)
}

func TestExtractiveOnFallbackTranscript(t *testing.T) {
	transcript, err := fallback.New().Transcribe(context.Background(), nil)
	require.NoError(t, err)

	note, err := ExtractiveGenerator{}.Generate(context.Background(), transcript)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(note.Subjective, "I've had a headache"))
	assert.Contains(t, note.Assessment, "headache")
	assert.Contains(t, note.Plan, "rapid strep test")
}

func TestChainFallsBackToExtractive(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"error", &stubLLM{err: errors.New("network down")}},
		{"timeout", &stubLLM{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewChain(nil, 20*time.Millisecond, NewLLMGenerator(tt.stub, 0.3, 100), ExtractiveGenerator{})

			out, err := chain.Generate(context.Background(), sampleTranscript())
			require.NoError(t, err)
			assert.True(t, out.FellBack)
			assert.Equal(t, ExtractiveGeneratorName, out.Generator)
			assert.Equal(t, "I have a bad cough and a fever.", out.Note.Subjective)
			assert.Equal(t, "What brings you in? Take rest and fluids.", out.Note.Plan)
			var gerr *GenerationError
			assert.ErrorAs(t, out.Cause, &gerr)
		})
	}
}

func TestChainPrefersLLM(t *testing.T) {
	stub := &stubLLM{reply: "ASSESSMENT: viral"}
	out, err := NewChain(nil, time.Second, NewLLMGenerator(stub, 0.3, 100), ExtractiveGenerator{}).
		Generate(context.Background(), sampleTranscript())
	require.NoError(t, err)
	assert.False(t, out.FellBack)
	assert.Equal(t, "viral", out.Note.Assessment)
	assert.Equal(t, Plan.Placeholder(), out.Note.Plan)
}
