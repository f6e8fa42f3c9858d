package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"routedesk/internal/service/routing"
)

const (
	actionRouteMessage = "route_message"
	actionBatchRoute   = "batch_route"
)

type MessageRouter interface {
	RouteMessage(ctx context.Context, messageID string) (*routing.RouteResult, error)
	RouteBatch(ctx context.Context) (*routing.BatchResult, error)
}

type RoutingHandler struct {
	svc MessageRouter
}

func NewRoutingHandler(svc MessageRouter) *RoutingHandler {
	return &RoutingHandler{svc: svc}
}

type routeRequest struct {
	Action    string `json:"action"`
	MessageID string `json:"message_id"`
}

// Handle serves POST /functions/route-message.
func (h *RoutingHandler) Handle(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidPayload, err))
		return
	}

	switch req.Action {
	case actionRouteMessage:
		h.routeMessage(c, req)
	case actionBatchRoute:
		h.batchRoute(c)
	default:
		respondError(c, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action))
	}
}

func (h *RoutingHandler) routeMessage(c *gin.Context, req routeRequest) {
	if _, err := uuid.Parse(req.MessageID); err != nil {
		respondError(c, fmt.Errorf("%w: message_id must be a uuid", ErrInvalidPayload))
		return
	}

	res, err := h.svc.RouteMessage(c.Request.Context(), req.MessageID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message_id": res.MessageID,
		"routing":    res.Verdict,
	})
}

func (h *RoutingHandler) batchRoute(c *gin.Context) {
	res, err := h.svc.RouteBatch(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": res.Processed,
		"routed":    res.Routed,
		"failed":    res.Failed,
		"results":   res.Results,
	})
}
