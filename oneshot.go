package llmlab

import (
	"context"
	"io"
)

// Oneshot adapts a Completer to the Provider contract. The whole reply is
// fetched inside Stream, which plays the role of connection establishment,
// and the returned Stream yields it as a single EventTextDelta followed by
// io.EOF. Consumers therefore handle non-streaming exercises through the
// same code path as streaming ones.
func Oneshot(c Completer) Provider {
	return oneshot{c: c}
}

type oneshot struct {
	c Completer
}

func (o oneshot) Stream(ctx context.Context, req Request) (Stream, error) {
	text, err := o.c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return &oneshotStream{text: text}, nil
}

// oneshotStream replays a complete reply as one fragment.
type oneshotStream struct {
	text  string
	state StreamState
}

var _ Stream = (*oneshotStream)(nil)

func (s *oneshotStream) Next() (Event, error) {
	switch s.state {
	case StreamStateNew:
		s.state = StreamStateStreaming
		return EventTextDelta{Delta: s.text}, nil
	case StreamStateStreaming, StreamStateComplete:
		s.state = StreamStateComplete
		return nil, io.EOF
	default:
		return nil, ErrStreamClosed
	}
}

func (s *oneshotStream) State() StreamState {
	return s.state
}

func (s *oneshotStream) Close() error {
	if s.state != StreamStateComplete {
		s.state = StreamStateClosed
	}
	return nil
}
