package parley

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Interface compliance check.
var _ SessionService = (*Manager)(nil)

const (
	defaultProviderTimeout = 60 * time.Second
	tracerName             = "github.com/fwojciec/parley"
)

// Manager creates sessions, routes messages to the session's provider and
// migrates sessions between providers.
type Manager struct {
	store        SessionStore
	providers    map[Model]Provider
	systemPrompt string
	timeout      time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) ManagerOption {
	return func(m *Manager) { m.systemPrompt = prompt }
}

// WithProviderTimeout bounds every provider call. Non-positive values are
// ignored.
func WithProviderTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger. Default discards all output.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithTracer sets the tracer. Default is the global tracer provider's.
func WithTracer(t trace.Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = t }
}

// NewManager creates a Manager over store. providers maps each configured
// model to its adapter; models without an entry are rejected.
func NewManager(store SessionStore, providers map[Model]Provider, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:        store,
		providers:    make(map[Model]Provider, len(providers)),
		systemPrompt: DefaultSystemPrompt,
		timeout:      defaultProviderTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:       otel.Tracer(tracerName),
	}
	for model, p := range providers {
		m.providers[model] = p
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// StartSession opens a conversation with the provider for model and stores it
// under a fresh session id. No user message is exchanged.
func (m *Manager) StartSession(ctx context.Context, model Model) (_ Session, err error) {
	ctx, span := m.startSpan(ctx, "parley.StartSession", attribute.String("model", string(model)))
	defer func() { endSpan(span, err) }()

	conv, err := m.open(ctx, model)
	if err != nil {
		m.logger.Error("start session failed", "model", model, "error", err)
		return Session{}, err
	}
	s, err := m.store.Create(ctx, model, conv)
	if err != nil {
		m.logger.Error("create session failed", "model", model, "error", err)
		return Session{}, m.translate(model, err)
	}
	span.SetAttributes(attribute.String("session.id", s.ID))
	m.logger.Info("session started", "session_id", s.ID, "model", model)
	return s, nil
}

// SendMessage forwards text to the session's current provider and records the
// exchange. On failure the session is left unchanged, so retrying with the
// same text is safe.
func (m *Manager) SendMessage(ctx context.Context, id, text string) (_ Reply, err error) {
	ctx, span := m.startSpan(ctx, "parley.SendMessage", attribute.String("session.id", id))
	defer func() { endSpan(span, err) }()

	text = strings.TrimSpace(text)
	var reply Reply
	_, err = m.store.Update(ctx, id, func(ctx context.Context, s *Session) error {
		p, err := m.provider(s.Model)
		if err != nil {
			return err
		}
		conv := s.Conversation()
		m.logger.Debug("sending message", "session_id", id, "model", s.Model, "message_len", len(text))
		answer, err := call(ctx, m.timeout, s.Model, func(ctx context.Context) (string, error) {
			return p.Send(ctx, conv, text)
		})
		if err != nil {
			return err
		}
		s.History = append(s.History, UserTurn(text), AssistantTurn(answer))
		reply = Reply{Text: answer, Model: s.Model}
		return nil
	})
	if err != nil {
		m.logger.Error("send message failed", "session_id", id, "error", err)
		return Reply{}, m.translate("", err)
	}
	span.SetAttributes(attribute.String("model", string(reply.Model)))
	m.logger.Info("message answered", "session_id", id, "model", reply.Model)
	return reply, nil
}

// SwitchProvider discards the session's conversational state and starts a
// fresh conversation with the provider for model. Only the session id
// survives; a switch to the current model resets it all the same.
func (m *Manager) SwitchProvider(ctx context.Context, id string, model Model) (_ Model, err error) {
	ctx, span := m.startSpan(ctx, "parley.SwitchProvider",
		attribute.String("session.id", id), attribute.String("model", string(model)))
	defer func() { endSpan(span, err) }()

	var from Model
	_, err = m.store.Update(ctx, id, func(ctx context.Context, s *Session) error {
		conv, err := m.open(ctx, model)
		if err != nil {
			return err
		}
		from = s.Model
		s.Reset(model, conv)
		return nil
	})
	if err != nil {
		m.logger.Error("switch provider failed", "session_id", id, "model", model, "error", err)
		return "", m.translate(model, err)
	}
	m.logger.Info("provider switched", "session_id", id, "from", from, "to", model)
	return model, nil
}

// EndSession removes every trace of the session. Unknown ids are not an
// error.
func (m *Manager) EndSession(ctx context.Context, id string) (err error) {
	ctx, span := m.startSpan(ctx, "parley.EndSession", attribute.String("session.id", id))
	defer func() { endSpan(span, err) }()

	if err := m.store.Remove(ctx, id); err != nil {
		m.logger.Error("end session failed", "session_id", id, "error", err)
		return m.translate("", err)
	}
	m.logger.Info("session ended", "session_id", id)
	return nil
}

// open starts a conversation with the provider for model.
func (m *Manager) open(ctx context.Context, model Model) (Conversation, error) {
	p, err := m.provider(model)
	if err != nil {
		return Conversation{}, err
	}
	h, err := call(ctx, m.timeout, model, func(ctx context.Context) (Handle, error) {
		return p.Start(ctx, m.systemPrompt)
	})
	if err != nil {
		return Conversation{}, err
	}
	return NewConversation(m.systemPrompt, h), nil
}

func (m *Manager) provider(model Model) (Provider, error) {
	p, ok := m.providers[model]
	if !ok {
		return nil, fmt.Errorf("no provider configured for model %q: %w", model, ErrInvalidModel)
	}
	return p, nil
}

type callResult[T any] struct {
	val T
	err error
}

// call runs fn under timeout. It stops waiting once the deadline passes even
// if fn ignores cancellation; fn's late result is discarded.
func call[T any](ctx context.Context, timeout time.Duration, model Model, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- callResult[T]{val: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil {
			return zero, asProviderError(model, r.err)
		}
		return r.val, nil
	case <-ctx.Done():
		return zero, &ProviderError{Model: model, Err: ctx.Err()}
	}
}

// translate reduces err to one of the client-visible kinds.
func (m *Manager) translate(model Model, err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrInvalidModel), errors.Is(err, ErrProvider):
		return err
	default:
		return &ProviderError{Model: model, Err: err}
	}
}

func asProviderError(model Model, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Model: model, Err: err}
}

func (m *Manager) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorCode(err))
	}
	span.End()
}
