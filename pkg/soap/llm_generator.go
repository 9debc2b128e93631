package soap

import (
	"context"
	"errors"
	"fmt"

	"convohealth-be/pkg/llm"
	"convohealth-be/pkg/transcription"
)

const LLMGeneratorName = "llm"

const systemInstruction = `You are a clinical documentation assistant. Convert the doctor-patient conversation into a SOAP note.
Respond with exactly four sections, each starting on its own line with these headers:
SUBJECTIVE:
OBJECTIVE:
ASSESSMENT:
PLAN:
Use only information stated in the conversation. If a section has no supporting information, write "No information provided." under it.`

type LLMGenerator struct {
	provider    llm.LLMProvider
	temperature float64
	maxTokens   int
}

var _ Generator = (*LLMGenerator)(nil)

func NewLLMGenerator(provider llm.LLMProvider, temperature float64, maxTokens int) *LLMGenerator {
	return &LLMGenerator{provider: provider, temperature: temperature, maxTokens: maxTokens}
}

func (g *LLMGenerator) Name() string {
	return LLMGeneratorName
}

func (g *LLMGenerator) Generate(ctx context.Context, transcript transcription.Transcript) (Note, error) {
	if len(transcript) == 0 {
		return Note{}, &GenerationError{Generator: g.Name(), Err: transcription.ErrEmptyTranscript}
	}

	content, err := g.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemInstruction},
		{Role: llm.RoleUser, Content: "Conversation transcript:\n" + transcript.Lines()},
	}, llm.WithTemperature(g.temperature), llm.WithMaxTokens(g.maxTokens))
	if err != nil {
		return Note{}, &GenerationError{Generator: g.Name(), Err: err}
	}

	note, err := Parse(content)
	if errors.Is(err, ErrNoSections) {
		return Note{}, &GenerationError{Generator: g.Name(), Err: fmt.Errorf("unparseable response: %w", err)}
	}
	return note, nil
}
