package classifier

import (
	"strings"

	"google.golang.org/genai"

	"routedesk/internal/model"
)

const systemPrompt = `You triage messages that clients send to an agency.
Read the message and decide:
- category: one of ` + "%CATEGORIES%" + `
- urgency: one of ` + "%URGENCIES%" + `
- assigned_team: one of ` + "%TEAMS%" + `
- summary: one sentence describing what the client wants
- suggested_reply: a short, polite first reply the team could send
- needs_escalation: true only when the client is upset, threatens to leave, or reports an outage

Routing guide:
- billing questions, invoices, refunds -> billing
- bugs, outages, technical how-to -> technical
- meetings, deadlines, timeline changes -> project_manager
- upsell, new work, pricing for more services -> sales
- anything else -> support

Respond with JSON only.`

func buildSystemPrompt() string {
	r := strings.NewReplacer(
		"%CATEGORIES%", strings.Join(model.Categories, ", "),
		"%URGENCIES%", strings.Join(model.Urgencies, ", "),
		"%TEAMS%", strings.Join(model.Teams, ", "),
	)
	return r.Replace(systemPrompt)
}

// verdictSchema constrains the provider to the closed enums.
func verdictSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category":         {Type: genai.TypeString, Enum: model.Categories},
			"urgency":          {Type: genai.TypeString, Enum: model.Urgencies},
			"assigned_team":    {Type: genai.TypeString, Enum: model.Teams},
			"summary":          {Type: genai.TypeString},
			"suggested_reply":  {Type: genai.TypeString},
			"needs_escalation": {Type: genai.TypeBoolean},
		},
		Required: []string{
			"category", "urgency", "assigned_team",
			"summary", "suggested_reply", "needs_escalation",
		},
		PropertyOrdering: []string{
			"category", "urgency", "assigned_team",
			"summary", "suggested_reply", "needs_escalation",
		},
	}
}
