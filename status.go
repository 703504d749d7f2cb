package llmlab

// Status is the externally published state of an exercise.
//
// Idle and Error are resting states; Streaming is the only state in which
// fragments are accepted.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of an exercise's published state.
// SessionID is empty until the first submission.
type Snapshot struct {
	SessionID string
	Text      string
	Status    Status
	Err       error
}

// Streaming reports whether a reply is in flight.
func (s Snapshot) Streaming() bool { return s.Status == StatusStreaming }
