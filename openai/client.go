package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fwojciec/parley"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
)

// Interface compliance check.
var _ parley.Provider = (*Client)(nil)

// Client implements [parley.Provider] by replaying history against the chat
// completions API.
type Client struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
}

type settings struct {
	model       string
	temperature float32
	maxTokens   int
	baseURL     string
	azure       bool
	apiVersion  string
	deployment  string
	httpClient  *http.Client
}

// Option configures a [Client].
type Option func(*settings)

// WithModel sets the model ID. Default is gpt-4.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithTemperature sets the sampling temperature. Default is 0.7.
func WithTemperature(t float32) Option {
	return func(s *settings) { s.temperature = t }
}

// WithMaxTokens caps the reply length. Default is 150.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = n }
}

// WithBaseURL sets the API base URL. Useful for OpenAI-compatible servers and
// for testing with httptest.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithAzure targets an Azure OpenAI resource at endpoint. Requests go to
// deployment, or to the model name when deployment is empty.
func WithAzure(endpoint, apiVersion, deployment string) Option {
	return func(s *settings) {
		s.azure = true
		s.baseURL = endpoint
		if apiVersion != "" {
			s.apiVersion = apiVersion
		}
		s.deployment = deployment
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// New creates a new [Client] authenticating with apiKey.
func New(apiKey string, opts ...Option) *Client {
	s := settings{
		model:       defaultModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		apiVersion:  defaultAPIVersion,
	}
	for _, o := range opts {
		o(&s)
	}

	var config goopenai.ClientConfig
	if s.azure {
		config = goopenai.DefaultAzureConfig(apiKey, s.baseURL)
		config.APIVersion = s.apiVersion
		if s.deployment != "" {
			deployment := s.deployment
			config.AzureModelMapperFunc = func(string) string { return deployment }
		}
	} else {
		config = goopenai.DefaultConfig(apiKey)
		if s.baseURL != "" {
			config.BaseURL = s.baseURL
		}
	}
	if s.httpClient != nil {
		config.HTTPClient = s.httpClient
	}

	return &Client{
		client:      goopenai.NewClientWithConfig(config),
		model:       s.model,
		temperature: s.temperature,
		maxTokens:   s.maxTokens,
	}
}

// Start returns a nil handle. The conversation lives entirely in the history
// the caller replays on every Send.
func (c *Client) Start(context.Context, string) (parley.Handle, error) {
	return nil, nil
}

// Send replays conv.History followed by message and returns the trimmed text
// of the first choice.
func (c *Client) Send(ctx context.Context, conv parley.Conversation, message string) (string, error) {
	messages := ConvertTurns(conv.History)
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: message,
	})

	temperature := c.temperature
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", c.fail(describeError(err))
	}
	if len(resp.Choices) == 0 {
		return "", c.fail(errors.New("empty response: no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) fail(err error) error {
	return &parley.ProviderError{Model: parley.ModelGPT4, Err: fmt.Errorf("openai: %w", err)}
}

// describeError adds the HTTP status to API errors so logs show quota and
// auth failures distinctly.
func describeError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %w", apiErr.HTTPStatusCode, err)
	}
	return err
}

// ConvertTurns converts parley turns to chat completion messages.
// Exported for testing.
func ConvertTurns(turns []parley.Turn) []goopenai.ChatCompletionMessage {
	result := make([]goopenai.ChatCompletionMessage, 0, len(turns)+1)
	for _, t := range turns {
		var role string
		switch t.Role {
		case parley.RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case parley.RoleUser:
			role = goopenai.ChatMessageRoleUser
		case parley.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		default:
			continue
		}
		result = append(result, goopenai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return result
}
