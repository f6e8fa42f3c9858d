package routing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"routedesk/internal/model"
	"routedesk/internal/repository"
	"routedesk/internal/service/mailer"
)

type memStore struct {
	mu       sync.Mutex
	messages map[string]*model.Message
	updates  []string
	failIDs  map[string]error

	lastSince time.Time
	lastLimit int
}

func newMemStore(msgs ...*model.Message) *memStore {
	s := &memStore{messages: map[string]*model.Message{}, failIDs: map[string]error{}}
	for _, m := range msgs {
		s.messages[m.ID] = m
	}
	return s
}

func (s *memStore) FindByID(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) ListUnrouted(_ context.Context, since time.Time, limit int) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSince, s.lastLimit = since, limit
	var out []*model.Message
	for _, m := range s.messages {
		if m.IsFromClient && m.AssignedTeam == nil && !m.CreatedAt.Before(since) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) UpdateRouting(_ context.Context, id string, v model.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIDs[id]; err != nil {
		return err
	}
	m, ok := s.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.Category = &v.Category
	m.Urgency = &v.Urgency
	m.AssignedTeam = &v.AssignedTeam
	m.RoutingSummary = &v.Summary
	s.updates = append(s.updates, id)
	return nil
}

type stubClassifier struct {
	verdict model.Verdict
	failOn  map[string]bool
	calls   int
}

func (c *stubClassifier) Classify(_ context.Context, content string) (*model.Verdict, error) {
	c.calls++
	if c.failOn[content] {
		return nil, errors.New("classification failed: llm unavailable")
	}
	v := c.verdict
	return &v, nil
}

type recordingMailer struct {
	sent []mailer.Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, e mailer.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

type projectMap map[string]*model.Project

func (p projectMap) FindByID(_ context.Context, id string) (*model.Project, error) {
	if pr, ok := p[id]; ok {
		return pr, nil
	}
	return nil, repository.ErrProjectNotFound
}

type memGuard struct {
	held     map[string]bool
	released []string
}

func (g *memGuard) AcquireOnce(_ context.Context, handler, id string) bool {
	k := handler + ":" + id
	if g.held[k] {
		return false
	}
	g.held[k] = true
	return true
}

func (g *memGuard) Release(_ context.Context, handler, id string) {
	delete(g.held, handler+":"+id)
	g.released = append(g.released, id)
}

func strPtr(s string) *string { return &s }
