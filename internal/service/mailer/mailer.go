package mailer

import (
	"context"
	"fmt"

	"routedesk/pkg/config"
	"routedesk/pkg/mq"
)

// Email is one outbound message. Body is plain text.
type Email struct {
	FromName string
	To       string
	Subject  string
	Body     string
}

// Mailer hands an email to the transactional mail collaborator.
// Delivery guarantees belong to the collaborator; Send only reports hand-off failures.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

const (
	BackendHTTP = "http"
	BackendMQ   = "mq"
)

// New builds the configured backend. publisher may be nil for the http backend.
func New(cfg config.MailConfig, publisher *mq.Publisher) (Mailer, error) {
	switch cfg.Backend {
	case BackendHTTP, "":
		return NewHTTPMailer(cfg), nil
	case BackendMQ:
		if publisher == nil {
			return nil, fmt.Errorf("mail backend %q requires an mq publisher", cfg.Backend)
		}
		return NewMQMailer(publisher, cfg.FromAddress), nil
	default:
		return nil, fmt.Errorf("unsupported mail backend: %s", cfg.Backend)
	}
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
