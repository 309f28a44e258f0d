package parley

import "context"

// Provider normalizes one model family's conversational API.
//
// Start opens a fresh conversation seeded with the persona prompt and returns
// the provider's handle, or nil when the provider replays history instead.
// Send continues conv with message and returns the assistant text. Failures
// are reported as *ProviderError.
type Provider interface {
	Start(ctx context.Context, systemPrompt string) (Handle, error)
	Send(ctx context.Context, conv Conversation, message string) (string, error)
}

// SessionStore owns every Session.
//
// Update serializes mutations per session: fn receives a copy of the stored
// session and its changes are committed only when fn returns nil.
// Remove is idempotent.
type SessionStore interface {
	Create(ctx context.Context, m Model, conv Conversation) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, fn func(ctx context.Context, s *Session) error) (Session, error)
	Remove(ctx context.Context, id string) error
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Text  string
	Model Model
}

// SessionService is the operation set exposed to clients.
type SessionService interface {
	StartSession(ctx context.Context, m Model) (Session, error)
	SendMessage(ctx context.Context, id, text string) (Reply, error)
	SwitchProvider(ctx context.Context, id string, m Model) (Model, error)
	EndSession(ctx context.Context, id string) error
}
