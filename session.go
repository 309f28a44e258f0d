package parley

import (
	"slices"
	"time"
)

// Handle is an opaque reference to conversational state held by a provider.
// Only the adapter that issued a handle may interpret it.
type Handle interface {
	// Model reports which model family issued the handle.
	Model() Model
}

// Conversation is the state a Provider needs to continue a conversation.
// History-replay providers read History; server-side-context providers read
// Handle.
type Conversation struct {
	History []Turn
	Handle  Handle
}

// NewConversation returns a conversation whose history is exactly one system
// turn carrying prompt.
func NewConversation(prompt string, h Handle) Conversation {
	return Conversation{
		History: []Turn{SystemTurn(prompt)},
		Handle:  h,
	}
}

// Session is a single client's conversation plus its model selection.
type Session struct {
	ID        string
	Model     Model
	History   []Turn
	Handle    Handle
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Conversation returns the provider-facing state of the session.
func (s Session) Conversation() Conversation {
	return Conversation{History: slices.Clone(s.History), Handle: s.Handle}
}

// Reset replaces the session's model and conversational state.
func (s *Session) Reset(m Model, conv Conversation) {
	s.Model = m
	s.History = conv.History
	s.Handle = conv.Handle
}

// Clone returns a copy of s that shares no history storage with it.
func (s Session) Clone() Session {
	s.History = slices.Clone(s.History)
	return s
}
