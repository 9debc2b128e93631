package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	header := nats.Header{}
	header.Set(headerOccurredAt, "2026-03-01T10:00:00Z")

	event, err := decode("events.USAGE_THRESHOLD_REACHED", header, []byte(`{"user_id":"u1","level":"warning"}`))
	require.NoError(t, err)

	assert.Equal(t, "USAGE_THRESHOLD_REACHED", event.EventType())
	assert.Equal(t, "warning", event.Payload()["level"])
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), event.Timestamp())
}

func TestDecode_MissingHeaderUsesNow(t *testing.T) {
	before := time.Now().UTC()
	event, err := decode("events.SOAP_NOTE_SAVED", nats.Header{}, []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "SOAP_NOTE_SAVED", event.EventType())
	assert.False(t, event.Timestamp().Before(before))
}

func TestDecode_BadPayload(t *testing.T) {
	_, err := decode("events.X", nats.Header{}, []byte(`not json`))
	assert.Error(t, err)
}
