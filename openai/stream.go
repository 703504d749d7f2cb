package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/llmlab"
	goopenai "github.com/sashabaranov/go-openai"
)

// receiver is the part of the SDK stream the adapter reads.
type receiver interface {
	Recv() (goopenai.ChatCompletionStreamResponse, error)
	Close() error
}

// stream implements [llmlab.Stream] over a chat completion stream.
type stream struct {
	recv  receiver
	ctx   context.Context
	state llmlab.StreamState
	err   error
}

// Interface compliance check.
var _ llmlab.Stream = (*stream)(nil)

func newStream(ctx context.Context, recv receiver) *stream {
	return &stream{recv: recv, ctx: ctx, state: llmlab.StreamStateNew}
}

// Next returns the next non-empty content delta. Chunks carrying only a
// role, a finish reason or usage are skipped.
func (s *stream) Next() (llmlab.Event, error) {
	switch s.state {
	case llmlab.StreamStateComplete:
		return nil, io.EOF
	case llmlab.StreamStateError:
		return nil, s.err
	case llmlab.StreamStateClosed:
		return nil, fmt.Errorf("openai: %w", llmlab.ErrStreamClosed)
	}

	for {
		resp, err := s.recv.Recv()
		if errors.Is(err, io.EOF) {
			s.state = llmlab.StreamStateComplete
			return nil, io.EOF
		}
		if err != nil {
			s.state = llmlab.StreamStateError
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.err = fmt.Errorf("openai: %w", err)
			return nil, s.err
		}

		s.state = llmlab.StreamStateStreaming
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return llmlab.EventTextDelta{Delta: delta}, nil
		}
	}
}

func (s *stream) State() llmlab.StreamState {
	return s.state
}

func (s *stream) Close() error {
	if s.state != llmlab.StreamStateComplete && s.state != llmlab.StreamStateError {
		s.state = llmlab.StreamStateClosed
	}
	return s.recv.Close()
}
