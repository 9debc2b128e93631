package factory

import (
	"fmt"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/llm"
	"convohealth-be/pkg/llm/ollama"
	"convohealth-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL string, credentials credential.Lookup) (llm.LLMProvider, error) {
	switch providerType {
	case "openai", "":
		if credentials == nil {
			return nil, fmt.Errorf("openai provider requires a credential lookup")
		}
		return openai.NewOpenAIProvider(credentials, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
