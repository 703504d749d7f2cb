package llmlab

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Provider.Stream().
//
// Next returns fragments in the order the server produced them and io.EOF
// once the reply is complete. Any other error is terminal: subsequent calls
// return the same error.
//
// Close releases the underlying connection. It is safe to call after a
// terminal state and must be called exactly once by the owner.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}
