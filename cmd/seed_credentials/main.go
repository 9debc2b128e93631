// Command seed_credentials stores provider API credentials from the
// environment so the transcription and LLM clients can resolve them.
//
// Recognised variables: SPEECH_TO_TEXT_API_KEY, SPEECH_TO_TEXT_ENDPOINT,
// GOOGLE_SPEECH_API_KEY, OPENAI_API_KEY, OPENAI_BASE_URL.
package main

import (
	"context"
	"log"
	"os"

	"convohealth-be/internal/config"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/internal/service"
	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/database"
)

type seed struct {
	name        string
	keyEnv      string
	endpointEnv string
}

var seeds = []seed{
	{name: credential.ProviderSpeechToText, keyEnv: "SPEECH_TO_TEXT_API_KEY", endpointEnv: "SPEECH_TO_TEXT_ENDPOINT"},
	{name: credential.ProviderGoogleSpeech, keyEnv: "GOOGLE_SPEECH_API_KEY"},
	{name: credential.ProviderLLM, keyEnv: "OPENAI_API_KEY", endpointEnv: "OPENAI_BASE_URL"},
}

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	svc := service.NewCredentialService(unitofwork.NewRepositoryFactory(db), logger.NewNopLogger())

	log.Println("Seeding provider credentials...")
	for _, s := range seeds {
		key := os.Getenv(s.keyEnv)
		endpoint := ""
		if s.endpointEnv != "" {
			endpoint = os.Getenv(s.endpointEnv)
		}
		if key == "" && endpoint == "" {
			log.Printf("Skip %s: %s not set", s.name, s.keyEnv)
			continue
		}

		if err := svc.Upsert(context.Background(), s.name, key, endpoint, true); err != nil {
			log.Fatalf("Error: Failed to store %s credential: %v", s.name, err)
		}
		log.Printf("Stored credential %s", s.name)
	}

	log.Println("Success: Credential seeding completed.")
}
