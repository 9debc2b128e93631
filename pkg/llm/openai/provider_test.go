package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, content string, seen *map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestChatSendsMessagesAndOptions(t *testing.T) {
	var seen map[string]interface{}
	srv := completionServer(t, http.StatusOK, "SUBJECTIVE: ok", &seen)
	defer srv.Close()

	p := NewOpenAIProvider(credential.Static{credential.ProviderLLM: {APIKey: "secret", Endpoint: srv.URL}}, "test-model")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "instructions"},
		{Role: llm.RoleUser, Content: "Doctor: hi"},
	}, llm.WithTemperature(0.2), llm.WithMaxTokens(256))
	require.NoError(t, err)
	assert.Equal(t, "SUBJECTIVE: ok", out)

	assert.Equal(t, "test-model", seen["model"])
	assert.InDelta(t, 0.2, seen["temperature"], 1e-9)
	assert.EqualValues(t, 256, seen["max_tokens"])
	msgs, ok := seen["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"error status", http.StatusBadRequest, ""},
		{"empty content", http.StatusOK, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.status, tt.content, nil)
			defer srv.Close()

			p := NewOpenAIProvider(credential.Static{credential.ProviderLLM: {APIKey: "secret", Endpoint: srv.URL}}, "")
			_, err := p.Generate(context.Background(), "prompt")
			assert.Error(t, err)
		})
	}
}

func TestChatWithoutCredential(t *testing.T) {
	_, err := NewOpenAIProvider(credential.Static{}, "").Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, credential.ErrUnavailable)
}
