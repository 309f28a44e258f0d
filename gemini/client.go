package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fwojciec/parley"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ parley.Provider = (*Client)(nil)
	_ parley.Handle   = (*chatHandle)(nil)
)

// Client implements [parley.Provider] for the Google Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	temperature *float32
}

type settings struct {
	model       string
	temperature *float32
	baseURL     string
	httpClient  *http.Client
}

// Option configures a [Client].
type Option func(*settings)

// WithModel sets the model ID. Default is gemini-2.0-flash-exp.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithTemperature sets the sampling temperature. Default is the model's.
func WithTemperature(t float32) Option {
	return func(s *settings) { s.temperature = &t }
}

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	s := settings{model: defaultModel}
	for _, o := range opts {
		o(&s)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{
		client:      gc,
		model:       s.model,
		temperature: s.temperature,
	}, nil
}

// chatHandle is the conversational handle issued by Start. genai.Chat is not
// safe for concurrent use; sem admits one SendMessage at a time, including one
// abandoned by a caller that stopped waiting.
type chatHandle struct {
	sem  chan struct{}
	chat *genai.Chat
}

func newChatHandle(chat *genai.Chat) *chatHandle {
	return &chatHandle{sem: make(chan struct{}, 1), chat: chat}
}

func (h *chatHandle) send(ctx context.Context, message string) (*genai.GenerateContentResponse, error) {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for chat: %w", ctx.Err())
	}
	defer func() { <-h.sem }()
	return h.chat.SendMessage(ctx, genai.Part{Text: message})
}

// Model returns parley.ModelGemini.
func (*chatHandle) Model() parley.Model { return parley.ModelGemini }

// Start opens a chat and sends systemPrompt as its first message. The model's
// acknowledgment is discarded.
func (c *Client) Start(ctx context.Context, systemPrompt string) (parley.Handle, error) {
	var config *genai.GenerateContentConfig
	if c.temperature != nil {
		config = &genai.GenerateContentConfig{Temperature: c.temperature}
	}
	chat, err := c.client.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return nil, fail(fmt.Errorf("create chat: %w", err))
	}
	if _, err := chat.SendMessage(ctx, genai.Part{Text: systemPrompt}); err != nil {
		return nil, fail(fmt.Errorf("prime chat: %w", err))
	}
	return newChatHandle(chat), nil
}

// Send forwards message through the chat held by conv.Handle. History is not
// replayed.
func (c *Client) Send(ctx context.Context, conv parley.Conversation, message string) (string, error) {
	h, ok := conv.Handle.(*chatHandle)
	if !ok || h == nil || h.chat == nil {
		return "", fail(errors.New("conversation has no gemini chat handle"))
	}
	resp, err := h.send(ctx, message)
	if err != nil {
		return "", fail(err)
	}
	return ResponseText(resp)
}

// ResponseText extracts the reply text from resp.
// Exported for testing.
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fail(errors.New("no candidates in response"))
	}
	text := resp.Text()
	if text == "" {
		return "", fail(errors.New("response has no text"))
	}
	return text, nil
}

func fail(err error) error {
	return &parley.ProviderError{Model: parley.ModelGemini, Err: fmt.Errorf("gemini: %w", err)}
}
