package mailer

import (
	"context"
	"fmt"
	"time"

	mqcontracts "routedesk/contracts/mq"
)

type publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// MQMailer publishes email.send events for a downstream sender.
type MQMailer struct {
	publisher publisher
	from      string
}

func NewMQMailer(p publisher, from string) *MQMailer {
	return &MQMailer{publisher: p, from: from}
}

func (m *MQMailer) Send(ctx context.Context, e Email) error {
	payload := mqcontracts.EmailSendPayload{
		FromName: e.FromName,
		From:     m.from,
		To:       e.To,
		Subject:  e.Subject,
		Body:     e.Body,
		QueuedAt: time.Now().UTC(),
	}
	if err := m.publisher.Publish(ctx, mqcontracts.RoutingKeyEmailSend, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", mqcontracts.RoutingKeyEmailSend, err)
	}
	return nil
}
