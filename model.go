package parley

import "fmt"

// Model identifies a supported model family. The set is closed.
type Model string

const (
	ModelGPT4   Model = "gpt4"
	ModelGemini Model = "gemini"
)

// Models returns every supported model in a stable order.
func Models() []Model {
	return []Model{ModelGPT4, ModelGemini}
}

// ParseModel validates s against the supported models.
func ParseModel(s string) (Model, error) {
	switch m := Model(s); m {
	case ModelGPT4, ModelGemini:
		return m, nil
	default:
		return "", fmt.Errorf("model %q must be one of %q: %w", s, Models(), ErrInvalidModel)
	}
}
