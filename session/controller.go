package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/llmlab"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// Recorder observes session outcomes, e.g. for metrics.
type Recorder interface {
	SessionStarted(exercise string)
	FragmentReceived(exercise string, size int)
	SessionFinished(exercise string, outcome State, elapsed time.Duration)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithName sets the exercise name used in logs and metrics.
func WithName(name string) ControllerOption {
	return func(c *Controller) { c.name = name }
}

// WithControllerLogger sets the logger. Defaults to a no-op logger.
func WithControllerLogger(l zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) { c.recorder = r }
}

// WithIDFunc overrides session id generation. Ids must be unique.
func WithIDFunc(fn func() string) ControllerOption {
	return func(c *Controller) { c.newID = fn }
}

// Controller sequences submissions for one exercise. At most one Session is
// active at a time; starting a new one cancels the old. Only callbacks from
// the active Session may change the published Snapshot: every update is
// checked against the active session id and dropped when stale.
type Controller struct {
	provider llmlab.Provider
	name     string
	log      zerolog.Logger
	recorder Recorder
	newID    func() string

	mu      sync.Mutex
	current *Session
	started time.Time
	text    strings.Builder
	snap    llmlab.Snapshot
	subs    map[int]chan llmlab.Snapshot
	nextSub int
}

// NewController creates a Controller whose sessions stream from provider.
func NewController(provider llmlab.Provider, opts ...ControllerOption) *Controller {
	c := &Controller{
		provider: provider,
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
		newID:    func() string { return "ses_" + ksuid.New().String() },
		subs:     make(map[int]chan llmlab.Snapshot),
	}
	for _, o := range opts {
		o(c)
	}
	if c.name != "" {
		c.log = c.log.With().Str("exercise", c.name).Logger()
	}
	return c
}

// Submit starts a new session for req, superseding any active one. Published
// state is reset to streaming before the connection is attempted. Submit
// returns once the connection is established; the reply is delivered through
// the published state. A connection failure is both published and returned.
// If the session is cancelled before it connects, Submit returns
// llmlab.ErrCancelled.
func (c *Controller) Submit(ctx context.Context, req llmlab.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.cancelLocked()
	id := c.newID()
	s := New(id, c.provider, Callbacks{
		OnFragment: func(text string) { c.fragment(id, text) },
		OnDone:     func(state State, err error) { c.done(id, state, err) },
	}, WithLogger(c.log))
	c.current = s
	c.started = time.Now()
	c.text.Reset()
	c.snap = llmlab.Snapshot{SessionID: id, Status: llmlab.StatusStreaming}
	c.publishLocked()
	c.mu.Unlock()

	c.record(prev)
	c.recorder.SessionStarted(c.name)
	c.log.Info().Str("session", id).Msg("submitted")
	return s.Start(ctx, req)
}

// CancelCurrent cancels the active session, if any, and publishes idle.
func (c *Controller) CancelCurrent() {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return
	}
	o := c.cancelLocked()
	c.snap.Status = llmlab.StatusIdle
	c.publishLocked()
	c.mu.Unlock()

	c.record(o)
}

// Reset cancels the active session, if any, and clears the published state.
func (c *Controller) Reset() {
	c.mu.Lock()
	o := c.cancelLocked()
	c.text.Reset()
	c.snap = llmlab.Snapshot{}
	c.publishLocked()
	c.mu.Unlock()

	c.record(o)
}

// Snapshot returns the published state.
func (c *Controller) Snapshot() llmlab.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers an observer of published state. The channel holds at
// most one pending Snapshot: a newer one replaces an undelivered older one,
// so slow observers see the latest state rather than every step. Call the
// returned function to unsubscribe; it closes the channel.
func (c *Controller) Subscribe() (<-chan llmlab.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.nextSub
	c.nextSub++
	ch := make(chan llmlab.Snapshot, 1)
	c.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, key)
			close(ch)
		})
	}
}

func (c *Controller) fragment(id, text string) {
	c.mu.Lock()
	if !c.activeLocked(id) {
		c.mu.Unlock()
		c.log.Debug().Str("session", id).Msg("stale fragment dropped")
		return
	}
	c.text.WriteString(text)
	c.snap.Text = c.text.String()
	c.publishLocked()
	c.mu.Unlock()

	c.recorder.FragmentReceived(c.name, len(text))
}

func (c *Controller) done(id string, state State, err error) {
	c.mu.Lock()
	if !c.activeLocked(id) {
		c.mu.Unlock()
		c.log.Debug().Str("session", id).Stringer("state", state).Msg("stale completion dropped")
		return
	}
	c.current = nil
	switch state {
	case StateFailed:
		c.snap.Status = llmlab.StatusError
		c.snap.Err = err
	default:
		c.snap.Status = llmlab.StatusIdle
	}
	elapsed := time.Since(c.started)
	c.publishLocked()
	c.mu.Unlock()

	c.recorder.SessionFinished(c.name, state, elapsed)
}

// outcome is how a session ended, held until the controller lock is released.
type outcome struct {
	state   State
	elapsed time.Duration
}

// cancelLocked cancels and forgets the active session and returns its
// outcome, or nil when none was active. The session's identity is cleared
// before it is cancelled so that anything it delivers afterwards fails the
// staleness check. A session that already ended on its own keeps its state:
// its completion is waiting on the lock and will be dropped as stale.
func (c *Controller) cancelLocked() *outcome {
	s := c.current
	if s == nil {
		return nil
	}
	c.current = nil
	o := &outcome{state: StateCancelled, elapsed: time.Since(c.started)}
	if !s.Cancel() {
		o.state = s.State()
	}
	c.log.Info().Str("session", s.ID()).Stringer("state", o.state).Msg("cancelled")
	return o
}

func (c *Controller) record(o *outcome) {
	if o != nil {
		c.recorder.SessionFinished(c.name, o.state, o.elapsed)
	}
}

func (c *Controller) activeLocked(id string) bool {
	return c.current != nil && c.current.ID() == id
}

// publishLocked offers the current snapshot to every subscriber without
// blocking.
func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c.snap:
		default:
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted(string)                        {}
func (nopRecorder) FragmentReceived(string, int)                 {}
func (nopRecorder) SessionFinished(string, State, time.Duration) {}
