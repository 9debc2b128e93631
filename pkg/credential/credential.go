// Package credential describes how provider clients obtain the API key and
// endpoint they call. Clients read credentials; they never write them.
package credential

import (
	"context"
	"errors"
)

// Provider keys as stored in the credential table.
const (
	ProviderSpeechToText = "speech_to_text"
	ProviderGoogleSpeech = "google_speech"
	ProviderLLM          = "llm"
)

// ErrUnavailable covers both a missing and an inactive credential; callers
// treat it as "fall back", not as a hard failure.
var ErrUnavailable = errors.New("credential unavailable")

type Credential struct {
	Name     string
	APIKey   string
	Endpoint string
}

type Lookup interface {
	Active(ctx context.Context, provider string) (Credential, error)
}

// Static serves fixed credentials, mostly for tests and local runs.
type Static map[string]Credential

func (s Static) Active(_ context.Context, provider string) (Credential, error) {
	c, ok := s[provider]
	if !ok || (c.APIKey == "" && c.Endpoint == "") {
		return Credential{}, ErrUnavailable
	}
	return c, nil
}
