package llmlab

import (
	"fmt"
	"strings"
)

// Request carries the prompt plus model selection and sampling parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string   // model ID, provider-specific; empty = provider default
	MaxTokens    int      // 0 = provider default
	Temperature  *float64 // nil = provider default
	TopP         *float64 // nil = provider default
}

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty: %w", ErrValidation)
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.TopP != nil {
		if *r.TopP < 0 || *r.TopP > 1 {
			return fmt.Errorf("top_p must be in [0, 1], got %g: %w", *r.TopP, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	return nil
}
