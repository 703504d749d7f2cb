package gemini

import (
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/llmlab"
	"google.golang.org/genai"
)

// stream implements [llmlab.Stream] by wrapping the genai SDK's streaming
// iterator. One chunk may carry several text parts; they are handed out one
// per Next.
type stream struct {
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   llmlab.StreamState
	pending []string
	ended   bool
	err     error
}

// Interface compliance check.
var _ llmlab.Stream = (*stream)(nil)

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		pull:  next,
		stop:  stop,
		state: llmlab.StreamStateNew,
	}
}

// prime pulls the first chunk so that errors raised while connecting are
// reported before the stream is handed out.
func (s *stream) prime() error {
	if err := s.fill(); err != nil {
		s.state = llmlab.StreamStateError
		s.err = err
		return err
	}
	return nil
}

// fill pulls one chunk into pending. It sets ended when the iterator is
// exhausted.
func (s *stream) fill() error {
	resp, err, ok := s.pull()
	if !ok {
		s.ended = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if err := checkFinish(resp); err != nil {
		return err
	}
	s.pending = append(s.pending, replyText(resp)...)
	return nil
}

func (s *stream) Next() (llmlab.Event, error) {
	switch s.state {
	case llmlab.StreamStateComplete:
		return nil, io.EOF
	case llmlab.StreamStateError:
		return nil, s.err
	case llmlab.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", llmlab.ErrStreamClosed)
	}

	for len(s.pending) == 0 {
		if s.ended {
			s.state = llmlab.StreamStateComplete
			return nil, io.EOF
		}
		if err := s.fill(); err != nil {
			s.state = llmlab.StreamStateError
			s.err = err
			return nil, err
		}
	}

	s.state = llmlab.StreamStateStreaming
	text := s.pending[0]
	s.pending = s.pending[1:]
	return llmlab.EventTextDelta{Delta: text}, nil
}

func (s *stream) State() llmlab.StreamState {
	return s.state
}

func (s *stream) Close() error {
	if s.state != llmlab.StreamStateComplete && s.state != llmlab.StreamStateError {
		s.state = llmlab.StreamStateClosed
	}
	s.stop()
	return nil
}
