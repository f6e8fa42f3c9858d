package routing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"routedesk/internal/model"
	"routedesk/internal/service/mailer"
	"routedesk/pkg/metrics"
)

const unknownProject = "Unknown project"

type ProjectFinder interface {
	FindByID(ctx context.Context, id string) (*model.Project, error)
}

// Notifier emails the owning team about a routed message.
type Notifier struct {
	mailer   mailer.Mailer
	projects ProjectFinder
	teams    TeamDirectory
	fromName string
	logger   *zap.Logger
}

func NewNotifier(m mailer.Mailer, projects ProjectFinder, teams TeamDirectory, fromName string, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer:   m,
		projects: projects,
		teams:    teams,
		fromName: fromName,
		logger:   logger,
	}
}

// Notify sends exactly one email. Project lookup failures only degrade the text.
func (n *Notifier) Notify(ctx context.Context, msg *model.Message, v *model.Verdict) error {
	to, ok := n.teams.Address(v.AssignedTeam)
	if !ok {
		return fmt.Errorf("no address configured for team %q", v.AssignedTeam)
	}

	project := n.lookupProject(ctx, msg)
	email := mailer.Email{
		FromName: n.fromName,
		To:       to,
		Subject:  teamSubject(msg, project, v),
		Body:     teamBody(msg, project, v),
	}

	if err := n.mailer.Send(ctx, email); err != nil {
		metrics.IncrementEmailSent("team_notification", "failed")
		return fmt.Errorf("failed to notify %s team: %w", v.AssignedTeam, err)
	}
	metrics.IncrementEmailSent("team_notification", "success")
	return nil
}

func (n *Notifier) lookupProject(ctx context.Context, msg *model.Message) *model.Project {
	if msg.ProjectID == nil || *msg.ProjectID == "" {
		return nil
	}
	p, err := n.projects.FindByID(ctx, *msg.ProjectID)
	if err != nil {
		n.logger.Warn("Project lookup failed, notifying without project",
			zap.String("message_id", msg.ID),
			zap.String("project_id", *msg.ProjectID),
			zap.Error(err),
		)
		return nil
	}
	return p
}

func urgencyMarker(urgency string) string {
	switch urgency {
	case model.UrgencyUrgent:
		return "[URGENT]"
	case model.UrgencyHigh:
		return "[HIGH]"
	default:
		return ""
	}
}

func clientName(msg *model.Message, p *model.Project) string {
	if p != nil && p.ClientName != "" {
		return p.ClientName
	}
	if msg.SenderName != "" {
		return msg.SenderName
	}
	return "Unknown client"
}

func projectName(p *model.Project) string {
	if p == nil || p.Name == "" {
		return unknownProject
	}
	return p.Name
}

func teamSubject(msg *model.Message, p *model.Project, v *model.Verdict) string {
	var parts []string
	if m := urgencyMarker(v.Urgency); m != "" {
		parts = append(parts, m)
	}
	if v.NeedsEscalation {
		parts = append(parts, "[ESCALATED]")
	}
	parts = append(parts, fmt.Sprintf("New %s message from %s (%s)", v.Category, clientName(msg, p), projectName(p)))
	return strings.Join(parts, " ")
}

func teamBody(msg *model.Message, p *model.Project, v *model.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s\n", clientName(msg, p))
	fmt.Fprintf(&b, "Project: %s\n", projectName(p))
	fmt.Fprintf(&b, "Category: %s\n", v.Category)
	fmt.Fprintf(&b, "Urgency: %s\n", v.Urgency)
	if v.NeedsEscalation {
		b.WriteString("Escalation: this message needs senior attention\n")
	}
	fmt.Fprintf(&b, "\nSummary:\n%s\n", v.Summary)
	fmt.Fprintf(&b, "\nSuggested reply:\n%s\n", v.SuggestedReply)
	fmt.Fprintf(&b, "\nOriginal message (%s):\n%s\n", msg.ID, msg.Content)
	return b.String()
}
