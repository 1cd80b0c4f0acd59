package service

// AMQP publishing for portal events. Errors are logged and returned so
// callers can ignore failures without interrupting the main request flow;
// an unreachable broker must never fail a launch or an activation.

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/logger"
	"github.com/revassist/technician-portal/internal/queue"
)

// Queue names shared with the consumer.
const (
	PromptActivatedQueue = "prompt.activated"
	PortalAccessQueue    = "portal.access"
)

// EventPublisher delivers portal events to the AMQP broker named in
// configuration. An empty URL disables publishing entirely, so deployments
// without a broker run without event noise in the logs.
type EventPublisher struct {
	url string
}

// NewEventPublisher builds a publisher for the given broker URL. Pass the
// empty string to disable events.
func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url}
}

// Enabled reports whether a broker is configured.
func (p *EventPublisher) Enabled() bool { return p != nil && p.url != "" }

// PromptActivated publishes a PromptActivatedEvent to the prompt.activated
// queue. Messages are marked persistent.
func (p *EventPublisher) PromptActivated(ctx context.Context, ev queue.PromptActivatedEvent) error {
	return p.publishJSON(ctx, PromptActivatedQueue, ev)
}

// PortalAccess publishes a PortalAccessEvent to the portal.access queue.
// Messages are marked persistent.
func (p *EventPublisher) PortalAccess(ctx context.Context, ev queue.PortalAccessEvent) error {
	return p.publishJSON(ctx, PortalAccessQueue, ev)
}

func (p *EventPublisher) publishJSON(ctx context.Context, queueName string, payload any) error {
	if !p.Enabled() {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.L().Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.L().Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		logger.L().Warn("rabbitmq queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.L().Warn("rabbitmq marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		logger.L().Warn("rabbitmq publish failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}
