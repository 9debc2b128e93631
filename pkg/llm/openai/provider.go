// Package openai talks to any OpenAI-compatible chat-completion endpoint.
// The API key and endpoint come from the credential store on every call so
// that rotating a key does not require a restart.
package openai

import (
	"context"
	"fmt"
	"strings"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "gpt-4o-mini"

type OpenAIProvider struct {
	credentials credential.Lookup
	model       string
	extra       []option.RequestOption
}

var _ llm.LLMProvider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(credentials credential.Lookup, model string, extra ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{credentials: credentials, model: model, extra: extra}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: p.model, Temperature: 0.3, MaxTokens: 1000}, opts...)

	cred, err := p.credentials.Active(ctx, credential.ProviderLLM)
	if err != nil {
		return "", fmt.Errorf("llm credential: %w", err)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cred.APIKey)}
	if cred.Endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cred.Endpoint))
	}
	reqOpts = append(reqOpts, p.extra...)
	client := openai.NewClient(reqOpts...)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant, "model":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(options.Model),
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
