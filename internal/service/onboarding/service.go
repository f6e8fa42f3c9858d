package onboarding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"routedesk/internal/model"
	"routedesk/internal/service/mailer"
	"routedesk/pkg/logger"
	"routedesk/pkg/metrics"
)

type TaskStore interface {
	InsertMany(ctx context.Context, tasks []model.OnboardingTask) error
	ListByClient(ctx context.Context, clientID string) ([]model.OnboardingTask, error)
	MarkCompleted(ctx context.Context, clientID, taskID string, at time.Time) (*model.OnboardingTask, error)
}

type Config struct {
	ManagerEmail string
	FromName     string
	Tiers        TierTable
}

type StartRequest struct {
	ClientName string `json:"client_name"`
	Tier       string `json:"tier"`
}

type StartResult struct {
	Tasks        []model.OnboardingTask `json:"tasks"`
	Tier         string                 `json:"tier,omitempty"`
	MonthlyValue int                    `json:"monthly_value,omitempty"`
}

type Progress struct {
	Total      int                    `json:"total"`
	Completed  int                    `json:"completed"`
	Percentage int                    `json:"percentage"`
	IsComplete bool                   `json:"is_complete"`
	EmailsSent int                    `json:"emails_sent"`
	Tasks      []model.OnboardingTask `json:"tasks"`
}

type Service struct {
	tasks  TaskStore
	mailer mailer.Mailer
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewService(tasks TaskStore, m mailer.Mailer, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		tasks:  tasks,
		mailer: m,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start seeds the five onboarding tasks for the caller and sends the welcome email.
// Calling it twice seeds twice.
func (s *Service) Start(ctx context.Context, caller model.Caller, req StartRequest) (*StartResult, error) {
	tier := strings.ToLower(strings.TrimSpace(req.Tier))
	var monthly int
	if tier != "" {
		v, ok := s.cfg.Tiers.MonthlyValue(tier)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, req.Tier)
		}
		monthly = v
	}

	now := s.now().UTC()
	tasks := make([]model.OnboardingTask, 0, len(onboardingTemplate))
	for i, tpl := range onboardingTemplate {
		tasks = append(tasks, model.OnboardingTask{
			ID:          uuid.NewString(),
			ClientID:    caller.UserID,
			Title:       tpl.Title,
			Description: tpl.Description,
			TaskOrder:   i + 1,
			IsRequired:  tpl.Required,
			CreatedAt:   now,
		})
	}

	if err := s.tasks.InsertMany(ctx, tasks); err != nil {
		return nil, err
	}
	metrics.AddOnboardingTasks(len(tasks))

	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		clientName = caller.DisplayName()
	}
	subject, body := welcomeEmail(clientName, tier, monthly, tasks)
	if err := s.send(ctx, "welcome", caller.Email, subject, body); err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("Onboarding started",
		zap.String("client_id", caller.UserID),
		zap.String("tier", tier),
		zap.Int("tasks", len(tasks)),
	)
	return &StartResult{Tasks: tasks, Tier: tier, MonthlyValue: monthly}, nil
}

func (s *Service) ListTasks(ctx context.Context, caller model.Caller) ([]model.OnboardingTask, error) {
	tasks, err := s.tasks.ListByClient(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.OnboardingTask{}
	}
	return tasks, nil
}

// CompleteTask marks one of the caller's tasks done. Tasks of other clients
// are reported as not found.
func (s *Service) CompleteTask(ctx context.Context, caller model.Caller, taskID string) (*model.OnboardingTask, error) {
	return s.tasks.MarkCompleted(ctx, caller.UserID, taskID, s.now().UTC())
}

// CheckProgress computes completion (rounded down). At 100% it sends the
// completion email to the client and the action-required email to the manager
// address; below 100% it sends nothing.
func (s *Service) CheckProgress(ctx context.Context, caller model.Caller) (*Progress, error) {
	tasks, err := s.ListTasks(ctx, caller)
	if err != nil {
		return nil, err
	}

	p := &Progress{Total: len(tasks), Tasks: tasks}
	for _, t := range tasks {
		if t.IsCompleted {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = p.Completed * 100 / p.Total
	}
	p.IsComplete = p.Percentage == 100

	if !p.IsComplete {
		return p, nil
	}

	subject, body := completionEmail(caller.DisplayName())
	if err := s.send(ctx, "completion", caller.Email, subject, body); err != nil {
		return nil, err
	}
	p.EmailsSent++

	subject, body = managerEmail(caller, p.Total)
	if err := s.send(ctx, "manager_alert", s.cfg.ManagerEmail, subject, body); err != nil {
		return nil, err
	}
	p.EmailsSent++

	logger.WithTrace(ctx, s.logger).Info("Onboarding completed",
		zap.String("client_id", caller.UserID),
		zap.Int("tasks", p.Total),
	)
	return p, nil
}

func (s *Service) send(ctx context.Context, kind, to, subject, body string) error {
	err := s.mailer.Send(ctx, mailer.Email{
		FromName: s.cfg.FromName,
		To:       to,
		Subject:  subject,
		Body:     body,
	})
	if err != nil {
		metrics.IncrementEmailSent(kind, "failed")
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	metrics.IncrementEmailSent(kind, "success")
	return nil
}
