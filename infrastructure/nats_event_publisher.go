package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"diamondpay/events"
)

// streamName holds every ledger event subject.
const streamName = "ledger_events"

// eventEnvelope wraps every published payload with delivery metadata.
type eventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher implements events.Publisher on JetStream. The event type
// doubles as the subject, e.g. diamond.spent.
type NATSEventPublisher struct {
	natsClient *NATSClient
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(natsClient *NATSClient) *NATSEventPublisher {
	return &NATSEventPublisher{natsClient: natsClient}
}

// Publish publishes an event to NATS using its type as the subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := eventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "diamondpay",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.natsClient.Publish(ctx, string(event.Type()), data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
	}).Debug("Published event to NATS")

	return nil
}

// EnsureEventStream ensures the ledger event stream exists with all subjects.
func (p *NATSEventPublisher) EnsureEventStream() error {
	subjects := []string{
		string(events.EventTypeDiamondSpent),
		string(events.EventTypeDiamondCredited),
		string(events.EventTypeDiamondConverted),
		string(events.EventTypeDiamondPurchased),
		string(events.EventTypeWalletCredited),
		string(events.EventTypeWithdrawalRequested),
		string(events.EventTypeWithdrawalCompleted),
		string(events.EventTypeWithdrawalRejected),
	}
	return p.natsClient.EnsureStream(streamName, subjects)
}
