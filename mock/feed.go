package mock

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/fwojciec/llmlab"
)

// Feed is a hand-driven transport. Tests push fragments, the end of the
// reply, or a failure, and the stream returned by Stream hands them to its
// reader one at a time. Pushes block until the reader takes the item or the
// stream is closed, so a test knows exactly what has been delivered.
type Feed struct {
	// IgnoreContext makes the stream keep delivering after its context is
	// cancelled, like a transport whose teardown lags behind cancellation.
	IgnoreContext bool

	items  chan feedItem
	closed chan struct{}
	once   sync.Once
}

type feedItem struct {
	text string
	err  error
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{
		items:  make(chan feedItem),
		closed: make(chan struct{}),
	}
}

// Send delivers a fragment. It reports whether the reader took it.
func (f *Feed) Send(text string) bool {
	return f.push(feedItem{text: text})
}

// End ends the reply. It reports whether the reader took it.
func (f *Feed) End() bool {
	return f.push(feedItem{err: io.EOF})
}

// Fail breaks the stream with err. It reports whether the reader took it.
func (f *Feed) Fail(err error) bool {
	return f.push(feedItem{err: err})
}

// Closed is closed once the stream has been closed by its owner.
func (f *Feed) Closed() <-chan struct{} {
	return f.closed
}

func (f *Feed) push(it feedItem) bool {
	select {
	case f.items <- it:
		return true
	case <-f.closed:
		return false
	}
}

// Stream returns the reading side of the feed bound to ctx.
func (f *Feed) Stream(ctx context.Context) llmlab.Stream {
	return &feedStream{feed: f, ctx: ctx}
}

// Feeds returns a Provider that hands out the given feeds in order, one per
// Stream call. Calls beyond the last feed fail.
func Feeds(feeds ...*Feed) *Provider {
	var (
		mu   sync.Mutex
		next int
	)
	return &Provider{
		StreamFn: func(ctx context.Context, _ llmlab.Request) (llmlab.Stream, error) {
			mu.Lock()
			defer mu.Unlock()
			if next >= len(feeds) {
				return nil, errors.New("mock: no feed left")
			}
			f := feeds[next]
			next++
			return f.Stream(ctx), nil
		},
	}
}

type feedStream struct {
	feed  *Feed
	ctx   context.Context
	state llmlab.StreamState
	err   error
}

var _ llmlab.Stream = (*feedStream)(nil)

func (s *feedStream) Next() (llmlab.Event, error) {
	switch s.state {
	case llmlab.StreamStateComplete:
		return nil, io.EOF
	case llmlab.StreamStateError:
		return nil, s.err
	case llmlab.StreamStateClosed:
		return nil, llmlab.ErrStreamClosed
	}

	var done <-chan struct{}
	if !s.feed.IgnoreContext {
		done = s.ctx.Done()
	}

	select {
	case it := <-s.feed.items:
		switch {
		case it.err == io.EOF:
			s.state = llmlab.StreamStateComplete
			return nil, io.EOF
		case it.err != nil:
			s.state = llmlab.StreamStateError
			s.err = it.err
			return nil, s.err
		}
		s.state = llmlab.StreamStateStreaming
		return llmlab.EventTextDelta{Delta: it.text}, nil
	case <-done:
		s.state = llmlab.StreamStateError
		s.err = s.ctx.Err()
		return nil, s.err
	case <-s.feed.closed:
		s.state = llmlab.StreamStateClosed
		return nil, llmlab.ErrStreamClosed
	}
}

func (s *feedStream) State() llmlab.StreamState {
	return s.state
}

func (s *feedStream) Close() error {
	if s.state != llmlab.StreamStateComplete && s.state != llmlab.StreamStateError {
		s.state = llmlab.StreamStateClosed
	}
	s.feed.once.Do(func() { close(s.feed.closed) })
	return nil
}
