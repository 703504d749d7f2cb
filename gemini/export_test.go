package gemini

import (
	"iter"

	"github.com/fwojciec/llmlab"
	"google.golang.org/genai"
)

// Generator exposes the SDK subset the client calls.
type Generator = generator

// NewWithGenerator creates a Client backed by g instead of the SDK.
func NewWithGenerator(g Generator, opts ...Option) *Client {
	return newClient(g, opts...)
}

// NewStreamFromIter wraps a genai iterator without priming it.
func NewStreamFromIter(seq iter.Seq2[*genai.GenerateContentResponse, error]) llmlab.Stream {
	return newStream(seq)
}
