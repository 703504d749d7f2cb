// Package openai implements [llmlab.Provider] and [llmlab.Completer] for the
// OpenAI Chat Completions API and compatible endpoints.
//
// It wraps github.com/sashabaranov/go-openai; the SDK's stream receiver is
// adapted to the pull-based [llmlab.Stream] interface.
package openai

const defaultModel = "gpt-4o-mini"
