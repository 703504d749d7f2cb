// Package mock provides test doubles for llmlab interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/llmlab"
)

// Interface compliance checks.
var (
	_ llmlab.Provider  = (*Provider)(nil)
	_ llmlab.Completer = (*Completer)(nil)
)

// Provider is a test double for llmlab.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req llmlab.Request) (llmlab.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req llmlab.Request) (llmlab.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Completer is a test double for llmlab.Completer.
// Set CompleteFn before calling Complete.
type Completer struct {
	CompleteFn func(ctx context.Context, req llmlab.Request) (string, error)
}

// Complete delegates to CompleteFn.
func (c *Completer) Complete(ctx context.Context, req llmlab.Request) (string, error) {
	return c.CompleteFn(ctx, req)
}
