package mock

import (
	"context"

	"github.com/fwojciec/parley"
)

// SessionStore is a test double for parley.SessionStore.
type SessionStore struct {
	CreateFn func(ctx context.Context, m parley.Model, conv parley.Conversation) (parley.Session, error)
	GetFn    func(ctx context.Context, id string) (parley.Session, error)
	UpdateFn func(ctx context.Context, id string, fn func(ctx context.Context, s *parley.Session) error) (parley.Session, error)
	RemoveFn func(ctx context.Context, id string) error
}

// Create delegates to CreateFn.
func (s *SessionStore) Create(ctx context.Context, m parley.Model, conv parley.Conversation) (parley.Session, error) {
	return s.CreateFn(ctx, m, conv)
}

// Get delegates to GetFn.
func (s *SessionStore) Get(ctx context.Context, id string) (parley.Session, error) {
	return s.GetFn(ctx, id)
}

// Update delegates to UpdateFn.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(ctx context.Context, s *parley.Session) error) (parley.Session, error) {
	return s.UpdateFn(ctx, id, fn)
}

// Remove delegates to RemoveFn.
func (s *SessionStore) Remove(ctx context.Context, id string) error {
	return s.RemoveFn(ctx, id)
}

// SessionService is a test double for parley.SessionService.
type SessionService struct {
	StartSessionFn   func(ctx context.Context, m parley.Model) (parley.Session, error)
	SendMessageFn    func(ctx context.Context, id, text string) (parley.Reply, error)
	SwitchProviderFn func(ctx context.Context, id string, m parley.Model) (parley.Model, error)
	EndSessionFn     func(ctx context.Context, id string) error
}

// StartSession delegates to StartSessionFn.
func (s *SessionService) StartSession(ctx context.Context, m parley.Model) (parley.Session, error) {
	return s.StartSessionFn(ctx, m)
}

// SendMessage delegates to SendMessageFn.
func (s *SessionService) SendMessage(ctx context.Context, id, text string) (parley.Reply, error) {
	return s.SendMessageFn(ctx, id, text)
}

// SwitchProvider delegates to SwitchProviderFn.
func (s *SessionService) SwitchProvider(ctx context.Context, id string, m parley.Model) (parley.Model, error) {
	return s.SwitchProviderFn(ctx, id, m)
}

// EndSession delegates to EndSessionFn.
func (s *SessionService) EndSession(ctx context.Context, id string) error {
	return s.EndSessionFn(ctx, id)
}
