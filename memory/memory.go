// Package memory implements [parley.SessionStore] in process memory.
//
// A short store-wide mutex guards the session map; each session additionally
// owns a one-slot semaphore that serializes mutations of that session only.
// Provider calls made inside Update hold the session's semaphore, never the
// store-wide mutex, so unrelated sessions proceed independently.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/parley"
	"github.com/google/uuid"
)

// Interface compliance check.
var _ parley.SessionStore = (*Store)(nil)

// maxIDAttempts bounds id generation retries on collision.
const maxIDAttempts = 8

type entry struct {
	sem     chan struct{}
	session parley.Session
	removed bool
}

// Store is an in-memory [parley.SessionStore].
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	newID    func() string
	now      func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithIDGenerator sets the session id generator. Default is a random UUID.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock sets the time source. Default is time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates an empty [Store].
func New(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a new session for model m seeded with conv.
func (s *Store) Create(_ context.Context, m parley.Model, conv parley.Conversation) (parley.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.allocateID()
	if err != nil {
		return parley.Session{}, err
	}
	now := s.now()
	sess := parley.Session{
		ID:        id,
		Model:     m,
		History:   conv.History,
		Handle:    conv.Handle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = &entry{
		sem:     make(chan struct{}, 1),
		session: sess.Clone(),
	}
	return sess.Clone(), nil
}

// allocateID must be called with s.mu held.
func (s *Store) allocateID() (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if _, taken := s.sessions[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("allocate session id: %d attempts collided", maxIDAttempts)
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(_ context.Context, id string) (parley.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return parley.Session{}, parley.ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

// Update applies fn to a copy of the session while holding the session's
// lock and commits the copy if fn succeeds. Waiting for the lock honours ctx.
func (s *Store) Update(ctx context.Context, id string, fn func(ctx context.Context, sess *parley.Session) error) (parley.Session, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return parley.Session{}, parley.ErrSessionNotFound
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return parley.Session{}, fmt.Errorf("wait for session %s: %w", id, ctx.Err())
	}
	defer func() { <-e.sem }()

	s.mu.Lock()
	if e.removed {
		s.mu.Unlock()
		return parley.Session{}, parley.ErrSessionNotFound
	}
	draft := e.session.Clone()
	s.mu.Unlock()

	if err := fn(ctx, &draft); err != nil {
		return parley.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.removed {
		return parley.Session{}, parley.ErrSessionNotFound
	}
	draft.ID = id
	draft.CreatedAt = e.session.CreatedAt
	draft.UpdatedAt = s.now()
	e.session = draft.Clone()
	return draft, nil
}

// Remove deletes the session. Removing an unknown id is a no-op.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.removed = true
		delete(s.sessions, id)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Expire removes sessions untouched for longer than idle and returns their
// ids. Sessions with a mutation in flight are skipped.
func (s *Store) Expire(idle time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	var expired []string
	for id, e := range s.sessions {
		if !e.session.UpdatedAt.Before(cutoff) {
			continue
		}
		select {
		case e.sem <- struct{}{}:
		default:
			continue
		}
		e.removed = true
		delete(s.sessions, id)
		<-e.sem
		expired = append(expired, id)
	}
	return expired
}
