// Package gemini implements [parley.Provider] for the Google Gemini API.
//
// It wraps the chat sessions of the google.golang.org/genai SDK. A chat is the
// provider-side conversational handle: Start opens one and primes it with the
// persona, and Send forwards only the new message, leaving the conversation
// context to the chat.
package gemini

const defaultModel = "gemini-2.0-flash-exp"
