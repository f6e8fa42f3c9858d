package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"routedesk/internal/model"
	"routedesk/internal/repository"
	"routedesk/internal/service/classifier"
	"routedesk/internal/service/mailer"
	"routedesk/internal/service/onboarding"
	"routedesk/internal/service/routing"
	"routedesk/pkg/trace"
	"routedesk/pkg/util"
)

const testSecret = "test-secret"

type fakeRouter struct {
	routeCalls int
	batchCalls int
	err        error
}

func (f *fakeRouter) RouteMessage(_ context.Context, id string) (*routing.RouteResult, error) {
	f.routeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &routing.RouteResult{MessageID: id, Verdict: &model.Verdict{
		Category: model.CategoryGeneral, Urgency: model.UrgencyLow, AssignedTeam: model.TeamSupport,
	}}, nil
}

func (f *fakeRouter) RouteBatch(context.Context) (*routing.BatchResult, error) {
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &routing.BatchResult{
		Processed: 2, Routed: 1, Failed: 1,
		Results: []routing.BatchItem{
			{MessageID: "a", Status: routing.StatusRouted},
			{MessageID: "b", Status: routing.StatusFailed, Error: "boom"},
		},
	}, nil
}

type fakeOnboarder struct {
	calls      int
	lastCaller model.Caller
	err        error
}

func (f *fakeOnboarder) Start(_ context.Context, c model.Caller, req onboarding.StartRequest) (*onboarding.StartResult, error) {
	f.calls++
	f.lastCaller = c
	if f.err != nil {
		return nil, f.err
	}
	return &onboarding.StartResult{Tasks: make([]model.OnboardingTask, 5), Tier: req.Tier}, nil
}

func (f *fakeOnboarder) CheckProgress(_ context.Context, c model.Caller) (*onboarding.Progress, error) {
	f.calls++
	f.lastCaller = c
	return &onboarding.Progress{Total: 5, Completed: 5, Percentage: 100, IsComplete: true, EmailsSent: 2}, f.err
}

func (f *fakeOnboarder) CompleteTask(_ context.Context, c model.Caller, taskID string) (*model.OnboardingTask, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.OnboardingTask{ID: taskID, ClientID: c.UserID, IsCompleted: true}, nil
}

func (f *fakeOnboarder) ListTasks(_ context.Context, c model.Caller) ([]model.OnboardingTask, error) {
	f.calls++
	return []model.OnboardingTask{}, f.err
}

type testServer struct {
	engine *gin.Engine
	router *fakeRouter
	onb    *fakeOnboarder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ts := &testServer{router: &fakeRouter{}, onb: &fakeOnboarder{}}
	ts.engine = NewRouter(RouterDeps{
		Routing:    NewRoutingHandler(ts.router),
		Onboarding: NewOnboardingHandler(ts.onb),
		JWTSecret:  testSecret,
		Logger:     zap.NewNop(),
		Readiness: map[string]ReadinessCheck{
			"db": func(context.Context) error { return nil },
		},
	})
	return ts
}

func bearer(t *testing.T) string {
	t.Helper()
	return bearerFor(t, "client-1")
}

func bearerFor(t *testing.T, subject string) string {
	t.Helper()
	token, err := util.GenerateJWT(subject, "jane@acme.test", "Jane", "client", testSecret, "", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func (ts *testServer) do(t *testing.T, path, auth string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestUnauthenticatedHasNoSideEffects(t *testing.T) {
	ts := newTestServer(t)

	for _, auth := range []string{"", "Bearer garbage", "Basic abc"} {
		w, body := ts.do(t, "/functions/route-message", auth, map[string]any{"action": "batch_route"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, body["error"])

		w, _ = ts.do(t, "/functions/onboarding", auth, map[string]any{"action": "start_onboarding"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// not even decoded: an invalid body still yields 401
	w, _ := ts.do(t, "/functions/route-message", "", "{not json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Zero(t, ts.router.routeCalls+ts.router.batchCalls)
	assert.Zero(t, ts.onb.calls)
}

func TestUnknownActionIsBadRequest(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, "/functions/route-message", bearer(t), map[string]any{"action": "delete_everything"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "invalid action")

	w, _ = ts.do(t, "/functions/onboarding", bearer(t), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, ts.router.routeCalls+ts.router.batchCalls)
	assert.Zero(t, ts.onb.calls)
}

func TestRouteMessageAction(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.NewString()

	w, body := ts.do(t, "/functions/route-message", bearer(t), map[string]any{"action": "route_message", "message_id": id})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, id, body["message_id"])
	routingBody, ok := body["routing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "support", routingBody["assigned_team"])
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName))
}

func TestRouteMessageInvalidPayload(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, "/functions/route-message", bearer(t), map[string]any{"action": "route_message", "message_id": "42"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, "/functions/route-message", bearer(t), "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, ts.router.routeCalls)
}

func TestBatchRouteAction(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, "/functions/route-message", bearer(t), map[string]any{"action": "batch_route"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["processed"])
	assert.EqualValues(t, 1, body["failed"])
	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{repository.ErrMessageNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", classifier.ErrEmptyMessage), http.StatusBadRequest},
		{fmt.Errorf("%w: llm call: timeout", classifier.ErrClassification), http.StatusInternalServerError},
		{routing.ErrRoutingInProgress, http.StatusConflict},
		{errors.New("mail api returned 502"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		ts := newTestServer(t)
		ts.router.err = tc.err

		w, body := ts.do(t, "/functions/route-message", bearer(t), map[string]any{"action": "route_message", "message_id": uuid.NewString()})
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Equal(t, tc.err.Error(), body["error"])
	}
}

func TestOnboardingActionsUseCaller(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "start_onboarding", "tier": "growth"})
	require.Equal(t, http.StatusOK, w.Code)
	tasks, ok := body["tasks"].([]any)
	require.True(t, ok)
	assert.Len(t, tasks, 5)
	assert.Equal(t, "client-1", ts.onb.lastCaller.UserID)
	assert.Equal(t, "jane@acme.test", ts.onb.lastCaller.Email)

	w, body = ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "check_progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 100, body["percentage"])
	assert.EqualValues(t, 2, body["emails_sent"])

	w, _ = ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "list_tasks"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "complete_task", "task_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "complete_task", "task_id": uuid.NewString()})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOnboardingErrors(t *testing.T) {
	ts := newTestServer(t)

	ts.onb.err = fmt.Errorf("%w: %q", onboarding.ErrUnknownTier, "platinum")
	w, _ := ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "start_onboarding", "tier": "platinum"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.onb.err = onboarding.ErrTaskNotFound
	w, _ = ts.do(t, "/functions/onboarding", bearer(t), map[string]any{"action": "complete_task", "task_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	gin.SetMode(gin.TestMode)
	notReady := NewRouter(RouterDeps{
		Routing:    NewRoutingHandler(&fakeRouter{}),
		Onboarding: NewOnboardingHandler(&fakeOnboarder{}),
		JWTSecret:  testSecret,
		Logger:     zap.NewNop(),
		Readiness: map[string]ReadinessCheck{
			"db": func(context.Context) error { return errors.New("connection refused") },
		},
	})
	w := httptest.NewRecorder()
	notReady.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type memTaskStore struct {
	tasks []model.OnboardingTask
}

func (m *memTaskStore) InsertMany(_ context.Context, tasks []model.OnboardingTask) error {
	m.tasks = append(m.tasks, tasks...)
	return nil
}

func (m *memTaskStore) ListByClient(_ context.Context, clientID string) ([]model.OnboardingTask, error) {
	var out []model.OnboardingTask
	for _, t := range m.tasks {
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTaskStore) MarkCompleted(_ context.Context, clientID, taskID string, at time.Time) (*model.OnboardingTask, error) {
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

type discardMailer struct{ sent int }

func (d *discardMailer) Send(context.Context, mailer.Email) error {
	d.sent++
	return nil
}

func TestOnboardingKeyedOnOpaqueSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tiers, err := onboarding.NewTierTable(nil)
	require.NoError(t, err)
	store := &memTaskStore{}
	mail := &discardMailer{}
	svc := onboarding.NewService(store, mail, onboarding.Config{
		ManagerEmail: "managers@agency.test",
		FromName:     "Agency",
		Tiers:        tiers,
	}, zap.NewNop())
	ts := &testServer{engine: NewRouter(RouterDeps{
		Routing:    NewRoutingHandler(&fakeRouter{}),
		Onboarding: NewOnboardingHandler(svc),
		JWTSecret:  testSecret,
		Logger:     zap.NewNop(),
	})}

	const subject = "auth0|abc123"
	auth := bearerFor(t, subject)

	w, _ := ts.do(t, "/functions/onboarding", auth, map[string]any{"action": "start_onboarding"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.tasks, 5)
	for _, task := range store.tasks {
		assert.Equal(t, subject, task.ClientID)
	}

	w, _ = ts.do(t, "/functions/onboarding", auth, map[string]any{"action": "complete_task", "task_id": store.tasks[0].ID})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := ts.do(t, "/functions/onboarding", auth, map[string]any{"action": "check_progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["completed"])
	assert.EqualValues(t, 20, body["percentage"])

	// another subject sees none of them
	w, body = ts.do(t, "/functions/onboarding", bearerFor(t, "client-2"), map[string]any{"action": "check_progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["total"])
}
