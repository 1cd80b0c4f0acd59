package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/logger"
)

const (
	activatedQueueName = "prompt.activated"
	accessQueueName    = "portal.access"
	activityLogPath    = "logs/activity.log"
)

// StartActivityConsumer connects to RabbitMQ, declares the two portal
// queues (durable), and appends each received event to logs/activity.log in
// a single-line, human-friendly format. It runs a reconnect loop with
// exponential backoff and never returns under normal operation; processing
// errors are logged and the offending message rejected without requeue so
// the consumer cannot spin on a poison message.
func StartActivityConsumer(url string) error {
	if url == "" {
		logger.L().Info("activity-consumer: no broker configured, audit trail disabled")
		return nil
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.L().Warn("activity-consumer: dial broker failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			logger.L().Warn("activity-consumer: consume loop ended, reconnecting", zap.Error(err))
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.L().Warn("activity-consumer: set QoS failed", zap.Error(err))
	}

	for _, name := range []string{activatedQueueName, accessQueueName} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	activated, err := ch.Consume(activatedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", activatedQueueName, err)
	}
	accesses, err := ch.Consume(accessQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", accessQueueName, err)
	}

	for {
		select {
		case d, ok := <-activated:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			handle(d, handleActivated)
		case d, ok := <-accesses:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			handle(d, handleAccess)
		}
	}
}

func handle(d amqp.Delivery, fn func([]byte) error) {
	if err := fn(d.Body); err != nil {
		logger.L().Warn("activity-consumer: handle message failed", zap.Error(err))
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func handleActivated(body []byte) error {
	var ev PromptActivatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Prompt activated | technician_id=%d | client_id=%d | prompt_id=%d | prompt=%q | purpose=%s\n",
		ev.ActivatedAt, ev.TechnicianID, ev.ClientID, ev.PromptID, ev.PromptName, ev.Purpose)
	return appendActivity(line)
}

func handleAccess(body []byte) error {
	var ev PortalAccessEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Portal access | technician_id=%d | technician=%q | client_id=%d | client=%q | role=%s | location=%s\n",
		ev.AccessedAt, ev.TechnicianID, ev.TechnicianName, ev.ClientID, ev.ClientName, ev.Role, ev.LocationExternalID)
	return appendActivity(line)
}

func appendActivity(line string) error {
	if err := os.MkdirAll(filepath.Dir(activityLogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(activityLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
