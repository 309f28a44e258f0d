// Package mock provides test doubles for parley interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/parley"
)

// Interface compliance checks.
var (
	_ parley.Provider       = (*Provider)(nil)
	_ parley.SessionStore   = (*SessionStore)(nil)
	_ parley.SessionService = (*SessionService)(nil)
	_ parley.Handle         = Handle("")
)

// Provider is a test double for parley.Provider.
// Set StartFn and SendFn before calling the matching method.
type Provider struct {
	StartFn func(ctx context.Context, systemPrompt string) (parley.Handle, error)
	SendFn  func(ctx context.Context, conv parley.Conversation, message string) (string, error)
}

// Start delegates to StartFn.
func (p *Provider) Start(ctx context.Context, systemPrompt string) (parley.Handle, error) {
	return p.StartFn(ctx, systemPrompt)
}

// Send delegates to SendFn.
func (p *Provider) Send(ctx context.Context, conv parley.Conversation, message string) (string, error) {
	return p.SendFn(ctx, conv, message)
}

// Handle is a handle issued by the model it names.
type Handle parley.Model

// Model returns the model the handle was issued by.
func (h Handle) Model() parley.Model { return parley.Model(h) }
