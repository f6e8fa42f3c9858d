package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"routedesk/internal/model"
	"routedesk/internal/service/onboarding"
)

const (
	actionStartOnboarding = "start_onboarding"
	actionCheckProgress   = "check_progress"
	actionCompleteTask    = "complete_task"
	actionListTasks       = "list_tasks"
)

type Onboarder interface {
	Start(ctx context.Context, caller model.Caller, req onboarding.StartRequest) (*onboarding.StartResult, error)
	CheckProgress(ctx context.Context, caller model.Caller) (*onboarding.Progress, error)
	CompleteTask(ctx context.Context, caller model.Caller, taskID string) (*model.OnboardingTask, error)
	ListTasks(ctx context.Context, caller model.Caller) ([]model.OnboardingTask, error)
}

type OnboardingHandler struct {
	svc Onboarder
}

func NewOnboardingHandler(svc Onboarder) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

type onboardingRequest struct {
	Action     string `json:"action"`
	ClientName string `json:"client_name"`
	Tier       string `json:"tier"`
	TaskID     string `json:"task_id"`
}

// Handle serves POST /functions/onboarding.
func (h *OnboardingHandler) Handle(c *gin.Context) {
	caller, err := callerFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req onboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidPayload, err))
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case actionStartOnboarding:
		res, err := h.svc.Start(ctx, caller, onboarding.StartRequest{ClientName: req.ClientName, Tier: req.Tier})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"tasks":         res.Tasks,
			"tier":          res.Tier,
			"monthly_value": res.MonthlyValue,
		})

	case actionCheckProgress:
		p, err := h.svc.CheckProgress(ctx, caller)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"total":       p.Total,
			"completed":   p.Completed,
			"percentage":  p.Percentage,
			"is_complete": p.IsComplete,
			"emails_sent": p.EmailsSent,
			"tasks":       p.Tasks,
		})

	case actionCompleteTask:
		if _, err := uuid.Parse(req.TaskID); err != nil {
			respondError(c, fmt.Errorf("%w: task_id must be a uuid", ErrInvalidPayload))
			return
		}
		task, err := h.svc.CompleteTask(ctx, caller, req.TaskID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "task": task})

	case actionListTasks:
		tasks, err := h.svc.ListTasks(ctx, caller)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "tasks": tasks})

	default:
		respondError(c, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action))
	}
}
