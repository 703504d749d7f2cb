// Package retry wraps a Provider with connection retries.
//
// Only opening the stream is retried. Once a Stream has been handed out its
// failures belong to the caller: fragments may already have been shown, so
// replaying the request would duplicate them.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fwojciec/llmlab"
	"github.com/rs/zerolog"
)

const defaultMaxRetries = 3

// Interface compliance check.
var _ llmlab.Provider = (*Provider)(nil)

// Provider retries failed connection attempts of the wrapped Provider.
type Provider struct {
	next       llmlab.Provider
	maxRetries uint64
	newBackOff func() backoff.BackOff
	log        zerolog.Logger
}

// Option configures a [Provider].
type Option func(*Provider)

// WithMaxRetries sets how many times a failed attempt is retried. Zero
// disables retries.
func WithMaxRetries(n uint64) Option {
	return func(p *Provider) { p.maxRetries = n }
}

// WithBackOff sets the policy spacing attempts. fn is called once per
// Stream call.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(p *Provider) { p.newBackOff = fn }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// New wraps next.
func New(next llmlab.Provider, opts ...Option) *Provider {
	p := &Provider{
		next:       next,
		maxRetries: defaultMaxRetries,
		newBackOff: defaultBackOff,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// Stream opens a stream on the wrapped Provider, retrying failed attempts.
// Validation errors and cancellation are not retried. If ctx ends while
// waiting between attempts, the context error is returned.
func (p *Provider) Stream(ctx context.Context, req llmlab.Request) (llmlab.Stream, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), p.maxRetries), ctx)

	attempt := 0
	op := func() (llmlab.Stream, error) {
		attempt++
		s, err := p.next.Stream(ctx, req)
		if err == nil {
			return s, nil
		}
		if permanent(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		p.log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("connect failed, retrying")
	}
	return backoff.RetryNotifyWithData(op, b, notify)
}

func permanent(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, llmlab.ErrValidation) ||
		errors.Is(err, context.Canceled)
}
