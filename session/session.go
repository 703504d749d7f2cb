// Package session consumes streamed replies. A Session owns one in-flight
// exchange with a Provider; a Controller sequences Sessions for one exercise
// and publishes the state user interfaces observe.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fwojciec/llmlab"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Session.
type State int

const (
	StatePending   State = iota // Created, connection not yet established.
	StateStreaming              // Connected, accepting fragments.
	StateCompleted              // Reply ended normally.
	StateFailed                 // Connection or transport failure.
	StateCancelled              // Cancelled by the user or superseded.
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the final states.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Callbacks receive a Session's progress. OnFragment gets each fragment as
// it arrives, not the accumulated text. OnDone fires exactly once, on the
// first terminal transition, unless that transition was caused by Cancel.
// Either may be nil.
type Callbacks struct {
	OnFragment func(text string)
	OnDone     func(state State, err error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session manages exactly one streaming exchange end to end.
//
// Transport events arrive from a single pump goroutine and are applied in
// delivery order. Text only grows while the session is streaming and is
// frozen once a terminal state is reached; exactly one terminal transition
// ever happens.
type Session struct {
	id       string
	provider llmlab.Provider
	cb       Callbacks
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	text   strings.Builder
	err    error
	ctx    context.Context
	cancel context.CancelCauseFunc

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a pending Session. The id must be unique per submission.
func New(id string, provider llmlab.Provider, cb Callbacks, opts ...Option) *Session {
	s := &Session{
		id:       id,
		provider: provider,
		cb:       cb,
		log:      zerolog.Nop(),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("session", id).Logger()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the text accumulated so far.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Err returns the failure recorded by a Failed session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the session has released its transport.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start opens the stream. It returns once the connection is established or
// has failed, never waiting for the reply itself. A connection failure moves
// the session to Failed and is returned wrapping llmlab.ErrConnection. If the
// session was cancelled before or while connecting, Start returns
// llmlab.ErrCancelled.
func (s *Session) Start(ctx context.Context, req llmlab.Request) error {
	s.mu.Lock()
	switch {
	case s.state == StateCancelled:
		s.mu.Unlock()
		s.release()
		return llmlab.ErrCancelled
	case s.state != StatePending || s.ctx != nil:
		s.mu.Unlock()
		return llmlab.ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancelCause(ctx)
	sctx := s.ctx
	s.mu.Unlock()

	s.log.Debug().Str("model", req.Model).Msg("connecting")
	stream, err := s.provider.Stream(sctx, req)
	if err != nil {
		s.finish(s.classify(fmt.Errorf("%w: %w", llmlab.ErrConnection, err)))
		s.release()
		if s.State() == StateCancelled {
			return llmlab.ErrCancelled
		}
		return s.Err()
	}

	s.mu.Lock()
	if s.state != StatePending {
		// Cancelled while connecting.
		s.mu.Unlock()
		_ = stream.Close()
		s.release()
		return llmlab.ErrCancelled
	}
	s.state = StateStreaming
	s.mu.Unlock()

	s.log.Debug().Msg("streaming")
	go s.pump(stream)
	return nil
}

// pump pulls fragments until the stream ends, fails, or the session stops
// accepting them, then closes the stream.
func (s *Session) pump(stream llmlab.Stream) {
	defer s.release()
	defer stream.Close()
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			s.OnStreamEnd()
			return
		}
		if err != nil {
			s.OnStreamError(err)
			return
		}
		if d, ok := evt.(llmlab.EventTextDelta); ok {
			s.OnFragment(d.Delta)
		}
		if s.State().Terminal() {
			return
		}
	}
}

// OnFragment appends text and forwards it to the fragment callback. It is a
// no-op unless the session is streaming, which drops fragments the
// transport delivers after cancellation.
func (s *Session) OnFragment(text string) {
	s.mu.Lock()
	if st := s.state; st != StateStreaming {
		s.mu.Unlock()
		s.log.Debug().Stringer("state", st).Msg("dropping fragment")
		return
	}
	s.text.WriteString(text)
	s.mu.Unlock()

	if s.cb.OnFragment != nil {
		s.cb.OnFragment(text)
	}
}

// OnStreamEnd completes the session. Idempotent.
func (s *Session) OnStreamEnd() {
	s.finish(StateCompleted, nil)
}

// OnStreamError fails the session with err wrapped in llmlab.ErrTransport,
// unless the session's own context was cancelled, in which case the abort is
// expected and the session resolves to Cancelled. No-op once terminal.
func (s *Session) OnStreamError(err error) {
	s.finish(s.classify(fmt.Errorf("%w: %w", llmlab.ErrTransport, err)))
}

// Cancel signals the transport to stop and moves the session to Cancelled
// synchronously. Callbacks are not invoked. Later notifications from the
// transport are ignored. Cancel reports whether it made the transition; it
// returns false when the session had already ended.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.state = StateCancelled
	cancel := s.cancel
	s.mu.Unlock()

	s.log.Debug().Msg("cancelled")
	if cancel != nil {
		cancel(llmlab.ErrCancelled)
	}
	return true
}

// classify decides how a failed exchange terminates. An error observed after
// the session's context was cancelled is the transport reporting its own
// teardown.
func (s *Session) classify(err error) (State, error) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx != nil && errors.Is(ctx.Err(), context.Canceled) {
		return StateCancelled, nil
	}
	return StateFailed, err
}

// finish performs the single terminal transition and notifies OnDone.
func (s *Session) finish(state State, err error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.err = err
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel(nil)
	}
	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Stringer("state", state).Msg("finished")

	if s.cb.OnDone != nil {
		s.cb.OnDone(state, err)
	}
}

func (s *Session) release() {
	s.doneOnce.Do(func() { close(s.done) })
}
