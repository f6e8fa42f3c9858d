package routing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"routedesk/internal/model"
	"routedesk/pkg/logger"
	"routedesk/pkg/metrics"
)

const (
	batchWindow = 24 * time.Hour
	batchLimit  = 10

	dedupeHandler = "route_message"
)

const (
	StatusRouted = "routed"
	StatusFailed = "failed"
)

const (
	TriggerSingle = "single"
	TriggerBatch  = "batch"
	TriggerEvent  = "event"
)

type MessageStore interface {
	FindByID(ctx context.Context, id string) (*model.Message, error)
	ListUnrouted(ctx context.Context, since time.Time, limit int) ([]*model.Message, error)
	UpdateRouting(ctx context.Context, id string, v model.Verdict) error
}

type Classifier interface {
	Classify(ctx context.Context, content string) (*model.Verdict, error)
}

type TeamNotifier interface {
	Notify(ctx context.Context, msg *model.Message, v *model.Verdict) error
}

// Guard is the optional cross-trigger dedupe lock (see util.Deduper).
type Guard interface {
	AcquireOnce(ctx context.Context, handler, id string) bool
	Release(ctx context.Context, handler, id string)
}

type RouteResult struct {
	MessageID string         `json:"message_id"`
	Verdict   *model.Verdict `json:"routing"`
}

type BatchItem struct {
	MessageID string         `json:"message_id"`
	Status    string         `json:"status"`
	Verdict   *model.Verdict `json:"routing,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type BatchResult struct {
	Processed int         `json:"processed"`
	Routed    int         `json:"routed"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

type Service struct {
	messages   MessageStore
	classifier Classifier
	notifier   TeamNotifier
	guard      Guard
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(messages MessageStore, classifier Classifier, notifier TeamNotifier, logger *zap.Logger) *Service {
	return &Service{
		messages:   messages,
		classifier: classifier,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// WithGuard enables the dedupe lock. A nil guard disables it.
func (s *Service) WithGuard(g Guard) *Service {
	s.guard = g
	return s
}

// RouteMessage classifies one message, persists the verdict and notifies the team.
// Nothing spans the steps: a notify failure leaves the message routed.
func (s *Service) RouteMessage(ctx context.Context, messageID string) (*RouteResult, error) {
	return s.routeByID(ctx, messageID, TriggerSingle)
}

// RouteFromEvent is RouteMessage for the message.created trigger.
func (s *Service) RouteFromEvent(ctx context.Context, messageID string) (*RouteResult, error) {
	return s.routeByID(ctx, messageID, TriggerEvent)
}

func (s *Service) routeByID(ctx context.Context, messageID, trigger string) (*RouteResult, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		metrics.IncrementMessageRouted(trigger, "", StatusFailed)
		return nil, err
	}
	return s.route(ctx, msg, trigger)
}

func (s *Service) route(ctx context.Context, msg *model.Message, trigger string) (*RouteResult, error) {
	log := logger.WithTrace(ctx, s.logger).With(
		zap.String("message_id", msg.ID),
		zap.String("trigger", trigger),
	)

	if s.guard != nil {
		if !s.guard.AcquireOnce(ctx, dedupeHandler, msg.ID) {
			metrics.IncrementMessageRouted(trigger, "", StatusFailed)
			return nil, ErrRoutingInProgress
		}
	}

	if msg.IsRouted() {
		log.Warn("Re-routing message that already has a team", zap.String("previous_team", *msg.AssignedTeam))
	}

	v, err := s.classifyAndStore(ctx, msg)
	if err != nil {
		if s.guard != nil {
			s.guard.Release(ctx, dedupeHandler, msg.ID)
		}
		metrics.IncrementMessageRouted(trigger, "", StatusFailed)
		log.Error("Message routing failed", zap.Error(err))
		return nil, err
	}

	if err := s.notifier.Notify(ctx, msg, v); err != nil {
		metrics.IncrementMessageRouted(trigger, v.AssignedTeam, StatusFailed)
		log.Error("Message routed but team notification failed",
			zap.String("team", v.AssignedTeam),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.IncrementMessageRouted(trigger, v.AssignedTeam, StatusRouted)
	log.Info("Message routed",
		zap.String("category", v.Category),
		zap.String("urgency", v.Urgency),
		zap.String("team", v.AssignedTeam),
		zap.Bool("needs_escalation", v.NeedsEscalation),
	)
	return &RouteResult{MessageID: msg.ID, Verdict: v}, nil
}

func (s *Service) classifyAndStore(ctx context.Context, msg *model.Message) (*model.Verdict, error) {
	v, err := s.classifier.Classify(ctx, msg.Content)
	if err != nil {
		return nil, err
	}
	if err := s.messages.UpdateRouting(ctx, msg.ID, *v); err != nil {
		return nil, err
	}
	return v, nil
}

// RouteBatch routes up to 10 unrouted client messages from the last 24 hours,
// newest first, one at a time. A failing item never stops the batch.
func (s *Service) RouteBatch(ctx context.Context) (*BatchResult, error) {
	since := s.now().Add(-batchWindow)
	msgs, err := s.messages.ListUnrouted(ctx, since, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unrouted messages: %w", err)
	}

	res := &BatchResult{Results: make([]BatchItem, 0, len(msgs))}
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		item := BatchItem{MessageID: msg.ID}
		routed, err := s.route(ctx, msg, TriggerBatch)
		if err != nil {
			item.Status = StatusFailed
			item.Error = err.Error()
			res.Failed++
		} else {
			item.Status = StatusRouted
			item.Verdict = routed.Verdict
			res.Routed++
		}
		res.Results = append(res.Results, item)
		res.Processed++
	}

	logger.WithTrace(ctx, s.logger).Info("Batch routing finished",
		zap.Int("processed", res.Processed),
		zap.Int("routed", res.Routed),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
