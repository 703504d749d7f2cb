package llmlab

import "context"

// Provider opens streaming exchanges with a model API.
//
// Stream returns once the connection is established (or has failed); it
// does not wait for the reply. Cancelling ctx must make the returned Stream
// stop delivering fragments and release its connection promptly.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Completer performs a non-streaming exchange and returns the whole reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts an ordinary function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
