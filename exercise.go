package llmlab

import (
	"fmt"
	"regexp"
)

// Exercise describes one form in the exercise book: how a prompt typed by the
// user becomes a Request, and how the result card is labelled.
type Exercise struct {
	ID           string
	Title        string
	Description  string
	Placeholder  string
	SystemPrompt string
	Model        string // empty = provider default
	MaxTokens    int
	Temperature  *float64

	// Oneshot fetches the whole reply in one request instead of streaming.
	Oneshot bool
}

var exerciseID = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Request builds the request for a prompt typed into this exercise.
func (e Exercise) Request(prompt string) Request {
	return Request{
		Prompt:       prompt,
		SystemPrompt: e.SystemPrompt,
		Model:        e.Model,
		MaxTokens:    e.MaxTokens,
		Temperature:  e.Temperature,
	}
}

// Validate checks that the exercise can be shown and submitted.
func (e Exercise) Validate() error {
	if !exerciseID.MatchString(e.ID) {
		return fmt.Errorf("exercise id %q must be lowercase letters, digits and dashes: %w", e.ID, ErrValidation)
	}
	if e.Title == "" {
		return fmt.Errorf("exercise %s: title must not be empty: %w", e.ID, ErrValidation)
	}
	if e.MaxTokens < 0 {
		return fmt.Errorf("exercise %s: max_tokens must be non-negative, got %d: %w", e.ID, e.MaxTokens, ErrValidation)
	}
	if e.Temperature != nil && (*e.Temperature < 0 || *e.Temperature > 2) {
		return fmt.Errorf("exercise %s: temperature must be in [0, 2], got %g: %w", e.ID, *e.Temperature, ErrValidation)
	}
	return nil
}

// DefaultExercises returns the built-in exercise catalog.
func DefaultExercises() []Exercise {
	return []Exercise{
		{
			ID:           "chat",
			Title:        "Chat",
			Description:  "Talk to the model. Watch the reply arrive token by token.",
			Placeholder:  "Ask anything...",
			SystemPrompt: "You are a patient tutor explaining how large language models work.",
		},
		{
			ID:           "tokens",
			Title:        "Tokens",
			Description:  "Paste a sentence and ask the model how it would be split into tokens.",
			Placeholder:  "The quick brown fox...",
			SystemPrompt: "Split the user's text into the tokens a BPE tokenizer would likely produce. Show them as a numbered list, then explain any surprising splits.",
			Temperature:  float64Ptr(0),
		},
		{
			ID:           "temperature",
			Title:        "Temperature",
			Description:  "Same prompt, high temperature. Submit twice and compare.",
			Placeholder:  "Write a one-line slogan for a bakery",
			SystemPrompt: "Answer in a single sentence.",
			Temperature:  float64Ptr(1.5),
		},
		{
			ID:           "extract",
			Title:        "Extraction",
			Description:  "Structured extraction in one request (non-streaming).",
			Placeholder:  "Invoice 42 from ACME, due 2024-05-01, total $120",
			SystemPrompt: "Extract the fields from the user's text and answer with a JSON object only.",
			Temperature:  float64Ptr(0),
			Oneshot:      true,
		},
	}
}

func float64Ptr(v float64) *float64 { return &v }
