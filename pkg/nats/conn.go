package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	StreamName    = "EVENTS"
	subjectPrefix = "events."

	headerOccurredAt = "Event-Occurred-At"
)

func connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("convohealth-be"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}
