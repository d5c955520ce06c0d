// Package events ships auth audit events to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"issue-tracker/internal/domain/audit"
	"issue-tracker/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const qosAtLeastOnce byte = 1

// Broker is the subset of the MQTT client the publisher needs.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

type MQTTPublisher struct {
	broker Broker
	prefix string
}

func NewMQTTPublisher(broker Broker, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{
		broker: broker,
		prefix: strings.TrimSuffix(topicPrefix, "/"),
	}
}

// Topic returns <prefix>/auth/<event type>.
func (p *MQTTPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return "auth/" + eventType
	}
	return p.prefix + "/auth/" + eventType
}

func (p *MQTTPublisher) Publish(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stamp(&event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	if err := p.broker.Publish(p.Topic(event.Type), qosAtLeastOnce, false, payload); err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	return nil
}

// LogPublisher writes audit events to the application log. Used when no
// broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (LogPublisher) Publish(_ context.Context, event audit.Event) error {
	stamp(&event)
	logger.Info("Audit event",
		zap.String("event", event.Type),
		zap.String("event_id", event.ID),
		zap.Uint("account_id", event.AccountID),
		zap.String("email", event.Email),
		zap.Any("metadata", event.Metadata),
	)
	return nil
}

func stamp(event *audit.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
}
