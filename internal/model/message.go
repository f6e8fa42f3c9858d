package model

import "time"

// Message is a client or staff message attached to a project.
// Routing fields are nil until the message has been routed.
type Message struct {
	ID             string
	ProjectID      *string
	SenderName     string
	Content        string
	IsFromClient   bool
	CreatedAt      time.Time
	Category       *string
	Urgency        *string
	AssignedTeam   *string
	RoutingSummary *string
}

// IsRouted reports whether a team has been assigned.
func (m *Message) IsRouted() bool {
	return m.AssignedTeam != nil
}
