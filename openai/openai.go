// Package openai implements [parley.Provider] for the OpenAI chat completions
// API, including Azure OpenAI deployments.
//
// The API is stateless, so every Send replays the whole conversation history.
// Start issues no request and returns a nil handle.
package openai

const (
	defaultModel       = "gpt-4"
	defaultTemperature = 0.7
	defaultMaxTokens   = 150
	defaultAPIVersion  = "2024-08-01-preview"
)
