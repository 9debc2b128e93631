package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RECORDING_ANALYZING_DELAY", "")
	t.Setenv("NOTE_SWEEP_INTERVAL", "")
	t.Setenv("TRANSCRIPTION_SPEAKER_OVERRIDES", "")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.Retention.SweepInterval)
	assert.Empty(t, cfg.Recording.SpeakerOverrides)
	assert.Equal(t, 60.0, cfg.Usage.TrialMinutes)
	assert.Equal(t, 15, cfg.Usage.TrialDays)
	assert.Equal(t, 0.8, cfg.Usage.WarnRatio)
	assert.Equal(t, 1500*time.Millisecond, cfg.Recording.AnalyzingDelay)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "750ms", 750 * time.Millisecond},
		{"bare seconds", "2.5", 2500 * time.Millisecond},
		{"garbage", "soon", time.Minute},
		{"unset", "", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}

func TestGetEnvAsBoolAndFloat(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_FLOAT", "0.75")
	t.Setenv("TEST_BAD_FLOAT", "x")

	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.False(t, getEnvAsBool("TEST_MISSING_BOOL", false))
	assert.Equal(t, 0.75, getEnvAsFloat("TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getEnvAsFloat("TEST_BAD_FLOAT", 1))
}
