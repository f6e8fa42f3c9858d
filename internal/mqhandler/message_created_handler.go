package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "routedesk/contracts/mq"
	"routedesk/internal/service/routing"
	"routedesk/pkg/trace"
)

type eventRouter interface {
	RouteFromEvent(ctx context.Context, messageID string) (*routing.RouteResult, error)
}

// MessageCreatedHandler routes client messages as soon as they are created.
// Routing failures are logged and acknowledged; the batch route picks the
// message up later. Malformed events are returned as errors and dead-lettered.
type MessageCreatedHandler struct {
	router eventRouter
	logger *zap.Logger
}

func NewMessageCreatedHandler(router eventRouter, logger *zap.Logger) *MessageCreatedHandler {
	return &MessageCreatedHandler{
		router: router,
		logger: logger,
	}
}

func (h *MessageCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.MessageCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal MessageCreatedPayload", zap.Error(err))
		return err
	}
	if _, err := uuid.Parse(p.MessageID); err != nil {
		return fmt.Errorf("invalid message_id in %s event: %q", mqcontracts.RoutingKeyMessageCreated, p.MessageID)
	}

	traceID := p.TraceID
	if traceID == "" {
		traceID = trace.GenerateTraceID()
	}
	ctx = trace.WithContext(ctx, traceID)
	log := h.logger.With(
		zap.String("message_id", p.MessageID),
		zap.String("trace_id", traceID),
	)

	if !p.IsFromClient {
		log.Debug("Skipping non-client message")
		return nil
	}

	log.Info("Handling message.created event")
	if _, err := h.router.RouteFromEvent(ctx, p.MessageID); err != nil {
		if errors.Is(err, routing.ErrRoutingInProgress) {
			log.Info("Message already being routed by another trigger")
			return nil
		}
		log.Error("Event routing failed, leaving message for batch route", zap.Error(err))
		return nil
	}
	return nil
}
