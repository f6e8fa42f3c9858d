package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"routedesk/internal/model"
	"routedesk/internal/repository"
	"routedesk/internal/service/mailer"
)

type memTasks struct {
	tasks []model.OnboardingTask
	err   error
}

func (m *memTasks) InsertMany(_ context.Context, tasks []model.OnboardingTask) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, tasks...)
	return nil
}

func (m *memTasks) ListByClient(_ context.Context, clientID string) ([]model.OnboardingTask, error) {
	var out []model.OnboardingTask
	for _, t := range m.tasks {
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTasks) MarkCompleted(_ context.Context, clientID, taskID string, at time.Time) (*model.OnboardingTask, error) {
	for i := range m.tasks {
		if m.tasks[i].ID == taskID && m.tasks[i].ClientID == clientID {
			m.tasks[i].IsCompleted = true
			m.tasks[i].CompletedAt = &at
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, repository.ErrTaskNotFound
}

type outbox struct {
	sent []mailer.Email
	err  error
}

func (o *outbox) Send(_ context.Context, e mailer.Email) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, e)
	return nil
}

var caller = model.Caller{UserID: "client-1", Email: "jane@acme.test", Name: "Jane"}

func newTestService(t *testing.T) (*Service, *memTasks, *outbox) {
	t.Helper()
	tiers, err := NewTierTable(nil)
	require.NoError(t, err)
	store := &memTasks{}
	mail := &outbox{}
	svc := NewService(store, mail, Config{
		ManagerEmail: "managers@agency.test",
		FromName:     "Agency",
		Tiers:        tiers,
	}, zap.NewNop())
	return svc, store, mail
}

func TestStartSeedsFiveTasks(t *testing.T) {
	svc, store, mail := newTestService(t)

	res, err := svc.Start(context.Background(), caller, StartRequest{ClientName: "Acme", Tier: "Growth"})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 5)
	require.Len(t, store.tasks, 5)

	wantRequired := []bool{true, true, false, true, true}
	for i, task := range res.Tasks {
		assert.Equal(t, i+1, task.TaskOrder)
		assert.Equal(t, wantRequired[i], task.IsRequired)
		assert.Equal(t, caller.UserID, task.ClientID)
		assert.False(t, task.IsCompleted)
		assert.NotEmpty(t, task.ID)
	}

	assert.Equal(t, "growth", res.Tier)
	assert.Equal(t, 3500, res.MonthlyValue)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, caller.Email, mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Subject, "Acme")
	assert.Contains(t, mail.sent[0].Body, "growth plan ($3500/month)")
}

func TestStartUnknownTier(t *testing.T) {
	svc, store, mail := newTestService(t)

	_, err := svc.Start(context.Background(), caller, StartRequest{Tier: "platinum"})
	assert.ErrorIs(t, err, ErrUnknownTier)
	assert.Empty(t, store.tasks)
	assert.Empty(t, mail.sent)
}

func TestStartStoreFailureSendsNothing(t *testing.T) {
	svc, store, mail := newTestService(t)
	store.err = errors.New("db down")

	_, err := svc.Start(context.Background(), caller, StartRequest{})
	require.Error(t, err)
	assert.Empty(t, mail.sent)
}

func TestCheckProgressBelowCompleteSendsNothing(t *testing.T) {
	svc, _, mail := newTestService(t)
	res, err := svc.Start(context.Background(), caller, StartRequest{})
	require.NoError(t, err)
	mail.sent = nil

	for _, task := range res.Tasks[:4] {
		_, err := svc.CompleteTask(context.Background(), caller, task.ID)
		require.NoError(t, err)
	}

	p, err := svc.CheckProgress(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 4, p.Completed)
	assert.Equal(t, 80, p.Percentage)
	assert.False(t, p.IsComplete)
	assert.Zero(t, p.EmailsSent)
	assert.Empty(t, mail.sent)
}

func TestCheckProgressCompleteSendsTwoEmails(t *testing.T) {
	svc, _, mail := newTestService(t)
	res, err := svc.Start(context.Background(), caller, StartRequest{})
	require.NoError(t, err)
	mail.sent = nil

	for _, task := range res.Tasks {
		_, err := svc.CompleteTask(context.Background(), caller, task.ID)
		require.NoError(t, err)
	}

	p, err := svc.CheckProgress(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Percentage)
	assert.True(t, p.IsComplete)
	assert.Equal(t, 2, p.EmailsSent)

	require.Len(t, mail.sent, 2)
	assert.Equal(t, caller.Email, mail.sent[0].To)
	assert.Equal(t, "managers@agency.test", mail.sent[1].To)
	assert.Contains(t, mail.sent[1].Subject, "ACTION REQUIRED")
}

func TestCheckProgressRoundsDownAndHandlesNoTasks(t *testing.T) {
	svc, store, _ := newTestService(t)

	p, err := svc.CheckProgress(context.Background(), caller)
	require.NoError(t, err)
	assert.Zero(t, p.Total)
	assert.Zero(t, p.Percentage)
	assert.NotNil(t, p.Tasks)

	store.tasks = []model.OnboardingTask{
		{ID: "a", ClientID: caller.UserID, IsCompleted: true},
		{ID: "b", ClientID: caller.UserID},
		{ID: "c", ClientID: caller.UserID},
	}
	p, err = svc.CheckProgress(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, 33, p.Percentage)
}

func TestCompleteTaskOwnerOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	res, err := svc.Start(context.Background(), caller, StartRequest{})
	require.NoError(t, err)

	other := model.Caller{UserID: "client-2", Email: "bob@other.test"}
	_, err = svc.CompleteTask(context.Background(), other, res.Tasks[0].ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	done, err := svc.CompleteTask(context.Background(), caller, res.Tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.NotNil(t, done.CompletedAt)
}

func TestTierTable(t *testing.T) {
	tiers, err := NewTierTable(map[string]int{"starter": 999, "agency": 20000})
	require.NoError(t, err)

	v, ok := tiers.MonthlyValue("starter")
	require.True(t, ok)
	assert.Equal(t, 999, v)
	assert.Equal(t, []string{"agency", "enterprise", "growth", "starter"}, tiers.Names())

	_, err = NewTierTable(map[string]int{"bad": -1})
	assert.Error(t, err)
}

func TestTierOverridesAreCaseInsensitive(t *testing.T) {
	tiers, err := NewTierTable(map[string]int{"Agency": 20000, " Growth ": 4000})
	require.NoError(t, err)
	assert.Equal(t, []string{"agency", "enterprise", "growth", "starter"}, tiers.Names())

	svc, _, _ := newTestService(t)
	svc.cfg.Tiers = tiers

	res, err := svc.Start(context.Background(), caller, StartRequest{ClientName: "Acme", Tier: "Agency"})
	require.NoError(t, err)
	assert.Equal(t, "agency", res.Tier)
	assert.Equal(t, 20000, res.MonthlyValue)

	v, ok := tiers.MonthlyValue("growth")
	require.True(t, ok)
	assert.Equal(t, 4000, v)

	_, err = NewTierTable(map[string]int{"Agency": 1, "agency": 2})
	assert.Error(t, err)
}
