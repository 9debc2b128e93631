package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Recording RecordingConfig
	Usage     UsageConfig
	Retention RetentionConfig
	Ai        AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type RecordingConfig struct {
	ChunkInterval         time.Duration
	TickInterval          time.Duration
	AnalyzingDelay        time.Duration
	TranscriptionTimeout  time.Duration
	GenerationTimeout     time.Duration
	SwapSpeakers          bool
	SpeakerOverrides      string // e.g. "0=Patient,1=Doctor"
	SessionIdleTTL        time.Duration
	MaxUploadBytes        int
	TranscriptionProvider string // "rest", "google" or "" for both
	TranscriptionUpload   string // "multipart" or "json"
	LanguageCode          string
}

type UsageConfig struct {
	TrialMinutes float64
	TrialDays    int
	WarnRatio    float64
}

type RetentionConfig struct {
	SweepInterval time.Duration
}

type AIConfig struct {
	OllamaBaseURL  string
	LLMProvider    string // "openai" or "ollama"
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8081"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Recording: RecordingConfig{
			ChunkInterval:         getEnvAsDuration("RECORDING_CHUNK_INTERVAL", 500*time.Millisecond),
			TickInterval:          getEnvAsDuration("RECORDING_TICK_INTERVAL", 100*time.Millisecond),
			AnalyzingDelay:        getEnvAsDuration("RECORDING_ANALYZING_DELAY", 1500*time.Millisecond),
			TranscriptionTimeout:  getEnvAsDuration("TRANSCRIPTION_TIMEOUT", 90*time.Second),
			GenerationTimeout:     getEnvAsDuration("NOTE_GENERATION_TIMEOUT", 60*time.Second),
			SwapSpeakers:          getEnvAsBool("TRANSCRIPTION_SWAP_SPEAKERS", false),
			SpeakerOverrides:      getEnv("TRANSCRIPTION_SPEAKER_OVERRIDES", ""),
			SessionIdleTTL:        getEnvAsDuration("RECORDING_SESSION_IDLE_TTL", time.Hour),
			MaxUploadBytes:        getEnvAsInt("RECORDING_MAX_UPLOAD_BYTES", 64*1024*1024),
			TranscriptionProvider: getEnv("TRANSCRIPTION_PROVIDER", ""),
			TranscriptionUpload:   getEnv("TRANSCRIPTION_UPLOAD_STYLE", "multipart"),
			LanguageCode:          getEnv("TRANSCRIPTION_LANGUAGE", "en-US"),
		},
		Usage: UsageConfig{
			TrialMinutes: getEnvAsFloat("TRIAL_LIMIT_MINUTES", 60),
			TrialDays:    getEnvAsInt("TRIAL_DAYS", 15),
			WarnRatio:    getEnvAsFloat("TRIAL_WARN_RATIO", 0.8),
		},
		Retention: RetentionConfig{
			SweepInterval: getEnvAsDuration("NOTE_SWEEP_INTERVAL", 15*time.Minute),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
			LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("750ms") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.ParseFloat(strValue, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
