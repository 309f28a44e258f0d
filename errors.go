package parley

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes a client can observe.
var (
	// ErrSessionNotFound indicates the session id is unknown or has ended.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidModel indicates a model outside the supported enumeration,
	// or one that has no configured provider.
	ErrInvalidModel = errors.New("invalid model selection")

	// ErrProvider matches every *ProviderError.
	ErrProvider = errors.New("provider error")
)

// Error codes returned by ErrorCode.
const (
	ECodeSessionNotFound = "session_not_found"
	ECodeInvalidModel    = "invalid_model"
	ECodeProvider        = "provider_error"
	ECodeInternal        = "internal"
)

// ProviderError wraps a failure of the upstream conversational service.
// The cause is for logs only and must not reach clients.
type ProviderError struct {
	Model Model
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("provider: %v", e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrProvider.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// ErrorCode returns the stable code for err. Unknown errors map to
// ECodeInternal.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return ECodeSessionNotFound
	case errors.Is(err, ErrInvalidModel):
		return ECodeInvalidModel
	case errors.Is(err, ErrProvider):
		return ECodeProvider
	default:
		return ECodeInternal
	}
}
