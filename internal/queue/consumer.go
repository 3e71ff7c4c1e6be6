package queue

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/mailer"
	"github.com/collabus/transit-admin/internal/templates"
)

// StartLifecycleConsumer connects to the broker at brokerURL, declares
// the user.lifecycle queue (durable), and consumes events, turning each
// one into the matching transactional email. The function runs a
// reconnect loop with exponential backoff and keeps running for the
// life of the process; malformed messages are rejected without requeue
// so a poison message cannot wedge the queue.
func StartLifecycleConsumer(brokerURL string, sender mailer.Sender, log *zap.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL)
		if err != nil {
			log.Warn("lifecycle-consumer: dial failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, sender, log); err != nil {
			log.Warn("lifecycle-consumer: consume loop ended, reconnecting", zap.Error(err))
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, sender mailer.Sender, log *zap.Logger) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(lifecycleQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.Qos(8, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := ch.Consume(lifecycleQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		var ev LifecycleEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Error("lifecycle-consumer: malformed event", zap.Error(err))
			_ = d.Nack(false, false) // no requeue for poison messages
			continue
		}
		deliver(ev, sender, log)
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

func deliver(ev LifecycleEvent, sender mailer.Sender, log *zap.Logger) {
	switch ev.Kind {
	case EventSignedUp:
		sender.Send(ev.Email, templates.ActivationEmail(ev.Name, ev.ActivationURL))
	case EventActivated:
		sender.Send(ev.Email, templates.WelcomeEmail(ev.Name))
	case EventDeleted:
		sender.Send(ev.Email, templates.GoodbyeEmail(ev.Name))
	case EventResetRequested:
		sender.Send(ev.Email, templates.PasswordResetEmail(ev.Name, ev.ResetURL))
	default:
		log.Warn("lifecycle-consumer: unknown event kind", zap.String("kind", ev.Kind))
	}
}
