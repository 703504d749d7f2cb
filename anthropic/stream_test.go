package anthropic_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/llmlab"
	"github.com/fwojciec/llmlab/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_TextResponse(t *testing.T) {
	t.Parallel()
	s := openStream(t, helloReply()...)

	events := drain(t, s)

	assert.Equal(t, []llmlab.Event{
		llmlab.EventTextDelta{Delta: "Hello"},
		llmlab.EventTextDelta{Delta: " world"},
	}, events)
	assert.Equal(t, llmlab.StreamStateComplete, s.State())
}

func TestStream_SkipsNonTextDeltas(t *testing.T) {
	t.Parallel()
	events := []sseEvent{
		startEvent,
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"Let me think"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"abc"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Answer"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":1}`},
		{"some_future_event", `{"type":"some_future_event"}`},
		{"message_stop", `{"type":"message_stop"}`},
	}

	got := drain(t, openStream(t, events...))
	assert.Equal(t, []llmlab.Event{llmlab.EventTextDelta{Delta: "Answer"}}, got)
}

func TestStream_MultiLineData(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\ndata: \"delta\":{\"type\":\"text_delta\",\"text\":\"split\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	}))
	t.Cleanup(srv.Close)

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []llmlab.Event{llmlab.EventTextDelta{Delta: "split"}}, drain(t, s))
}

func TestStream_State(t *testing.T) {
	t.Parallel()
	s := openStream(t, helloReply()...)
	assert.Equal(t, llmlab.StreamStateNew, s.State())

	_, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, llmlab.StreamStateStreaming, s.State())

	_ = drain(t, s)
	assert.Equal(t, llmlab.StreamStateComplete, s.State())

	_, err = s.Next()
	assert.Equal(t, io.EOF, err, "EOF is sticky")
}

func TestStream_ClosePreservesTerminalState(t *testing.T) {
	t.Parallel()
	s := openStream(t, helloReply()...)
	_ = drain(t, s)

	require.NoError(t, s.Close())
	assert.Equal(t, llmlab.StreamStateComplete, s.State())
}

func TestStream_NextAfterClose(t *testing.T) {
	t.Parallel()
	s := openStream(t, helloReply()...)
	require.NoError(t, s.Close())

	_, err := s.Next()
	assert.ErrorIs(t, err, llmlab.ErrStreamClosed)
	assert.Equal(t, llmlab.StreamStateClosed, s.State())
}

func TestStream_SSEError(t *testing.T) {
	t.Parallel()
	events := []sseEvent{
		startEvent,
		delta("par"),
		{"error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`},
	}
	s := openStream(t, events...)

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, llmlab.EventTextDelta{Delta: "par"}, evt)

	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded_error")
	assert.Equal(t, llmlab.StreamStateError, s.State())

	_, err2 := s.Next()
	assert.Equal(t, err, err2, "terminal error is sticky")
}

func TestStream_MalformedDelta(t *testing.T) {
	t.Parallel()
	events := []sseEvent{
		{"content_block_delta", `{not json`},
	}
	s := openStream(t, events...)

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content_block_delta")
}

func TestStream_UnexpectedEOF(t *testing.T) {
	t.Parallel()
	events := []sseEvent{
		startEvent,
		delta("Hel"),
	}
	s := openStream(t, events...)

	_, err := s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err, "body ending without message_stop is a failure")
	assert.Contains(t, err.Error(), "unexpected end of stream")
}

func TestStream_ContextCancellation(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		fmt.Fprintf(w, "event: message_start\ndata: %s\n\n", startEvent.data)
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hi\"}}\n\n")
		if flusher != nil {
			flusher.Flush()
		}
		close(started)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	s, err := client.Stream(ctx, llmlab.Request{Prompt: "Hi"})
	require.NoError(t, err)
	defer s.Close()

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, llmlab.EventTextDelta{Delta: "Hi"}, evt)

	<-started
	cancel()

	_, err = s.Next()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, llmlab.StreamStateError, s.State())
}

func TestStream_ReadErrorMidStream(t *testing.T) {
	t.Parallel()

	// Partial SSE then an abrupt close, without message_stop.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n")
		if flusher != nil {
			flusher.Flush()
		}
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.NoError(t, err)
	defer s.Close()

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, llmlab.EventTextDelta{Delta: "partial"}, evt)

	_, err = s.Next()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
	assert.Equal(t, llmlab.StreamStateError, s.State())
}
