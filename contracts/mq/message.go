package mq

import "time"

const (
	RoutingKeyMessageCreated = "message.created"
	RoutingKeyEmailSend      = "email.send"
)

// MessageCreatedPayload 新消息事件的 payload
type MessageCreatedPayload struct {
	MessageID    string    `json:"message_id"`
	ProjectID    string    `json:"project_id,omitempty"`
	IsFromClient bool      `json:"is_from_client"`
	CreatedAt    time.Time `json:"created_at"`
	TraceID      string    `json:"trace_id,omitempty"`
}

// EmailSendPayload is consumed by the downstream mail sender.
type EmailSendPayload struct {
	FromName string    `json:"from_name"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}
