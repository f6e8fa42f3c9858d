package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "routedesk/contracts/mq"
	"routedesk/internal/service/routing"
	"routedesk/pkg/trace"
)

type fakeEventRouter struct {
	ids     []string
	traceID string
	err     error
}

func (f *fakeEventRouter) RouteFromEvent(ctx context.Context, id string) (*routing.RouteResult, error) {
	f.ids = append(f.ids, id)
	f.traceID = trace.FromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &routing.RouteResult{MessageID: id}, nil
}

func payload(t *testing.T, p mqcontracts.MessageCreatedPayload) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func TestHandleRoutesClientMessages(t *testing.T) {
	r := &fakeEventRouter{}
	h := NewMessageCreatedHandler(r, zap.NewNop())
	id := uuid.NewString()

	err := h.Handle(context.Background(), payload(t, mqcontracts.MessageCreatedPayload{MessageID: id, IsFromClient: true, TraceID: "t-1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{id}, r.ids)
	assert.Equal(t, "t-1", r.traceID)
}

func TestHandleSkipsStaffMessages(t *testing.T) {
	r := &fakeEventRouter{}
	h := NewMessageCreatedHandler(r, zap.NewNop())

	err := h.Handle(context.Background(), payload(t, mqcontracts.MessageCreatedPayload{MessageID: uuid.NewString()}))
	require.NoError(t, err)
	assert.Empty(t, r.ids)
}

func TestHandleAcksRoutingFailures(t *testing.T) {
	for _, routeErr := range []error{errors.New("llm down"), routing.ErrRoutingInProgress} {
		r := &fakeEventRouter{err: routeErr}
		h := NewMessageCreatedHandler(r, zap.NewNop())

		err := h.Handle(context.Background(), payload(t, mqcontracts.MessageCreatedPayload{MessageID: uuid.NewString(), IsFromClient: true}))
		assert.NoError(t, err)
		assert.Len(t, r.ids, 1)
		assert.NotEmpty(t, r.traceID)
	}
}

func TestHandleRejectsMalformedEvents(t *testing.T) {
	r := &fakeEventRouter{}
	h := NewMessageCreatedHandler(r, zap.NewNop())

	assert.Error(t, h.Handle(context.Background(), json.RawMessage(`{"message_id":`)))
	assert.Error(t, h.Handle(context.Background(), payload(t, mqcontracts.MessageCreatedPayload{MessageID: "17", IsFromClient: true})))
	assert.Empty(t, r.ids)
}
