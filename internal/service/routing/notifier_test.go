package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"routedesk/internal/model"
)

func TestTeamSubjectMarkers(t *testing.T) {
	msg := &model.Message{ID: "m1", SenderName: "Jane"}
	p := &model.Project{Name: "Shop", ClientName: "Acme"}

	cases := []struct {
		urgency   string
		escalated bool
		want      string
	}{
		{model.UrgencyUrgent, false, "[URGENT] New issue message from Acme (Shop)"},
		{model.UrgencyHigh, false, "[HIGH] New issue message from Acme (Shop)"},
		{model.UrgencyMedium, false, "New issue message from Acme (Shop)"},
		{model.UrgencyLow, false, "New issue message from Acme (Shop)"},
		{model.UrgencyUrgent, true, "[URGENT] [ESCALATED] New issue message from Acme (Shop)"},
	}
	for _, tc := range cases {
		v := &model.Verdict{Category: model.CategoryIssue, Urgency: tc.urgency, NeedsEscalation: tc.escalated}
		assert.Equal(t, tc.want, teamSubject(msg, p, v))
	}
}

func TestNotifyUnknownProject(t *testing.T) {
	teams, err := NewTeamDirectory(nil)
	require.NoError(t, err)
	m := &recordingMailer{}
	n := NewNotifier(m, projectMap{}, teams, "Desk", zap.NewNop())

	msg := &model.Message{ID: "m1", ProjectID: strPtr("gone"), SenderName: "Jane", Content: "Site is down"}
	v := &model.Verdict{Category: model.CategoryTechnical, Urgency: model.UrgencyUrgent, AssignedTeam: model.TeamTechnical,
		Summary: "Outage", SuggestedReply: "On it"}

	require.NoError(t, n.Notify(context.Background(), msg, v))
	require.Len(t, m.sent, 1)

	e := m.sent[0]
	assert.Equal(t, "tech@agency.example", e.To)
	assert.Equal(t, "Desk", e.FromName)
	assert.Contains(t, e.Subject, "Unknown project")
	assert.Contains(t, e.Body, "Client: Jane")
	assert.Contains(t, e.Body, "Category: technical")
	assert.Contains(t, e.Body, "Urgency: urgent")
	assert.Contains(t, e.Body, "Outage")
	assert.Contains(t, e.Body, "On it")
	assert.Contains(t, e.Body, "Site is down")
}

func TestTeamDirectoryOverrides(t *testing.T) {
	d, err := NewTeamDirectory(map[string]string{model.TeamSales: "deals@agency.test"})
	require.NoError(t, err)

	addr, ok := d.Address(model.TeamSales)
	require.True(t, ok)
	assert.Equal(t, "deals@agency.test", addr)
	assert.Len(t, d.All(), len(model.Teams))

	all := d.All()
	all[model.TeamSales] = "mutated"
	addr, _ = d.Address(model.TeamSales)
	assert.Equal(t, "deals@agency.test", addr)

	_, err = NewTeamDirectory(map[string]string{"legal": "law@agency.test"})
	assert.Error(t, err)
}
