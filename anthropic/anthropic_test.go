package anthropic_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/llmlab"
	"github.com/fwojciec/llmlab/anthropic"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

var startEvent = sseEvent{"message_start", `{"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","content":[],"model":"claude-haiku-4-5","stop_reason":null,"usage":{"input_tokens":12,"output_tokens":1}}}`}

func delta(text string) sseEvent {
	return sseEvent{"content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, text)}
}

// helloReply is a complete two-fragment reply, pings and block markers
// included.
func helloReply() []sseEvent {
	return []sseEvent{
		startEvent,
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		delta("Hello"),
		delta(" world"),
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}
}

// openStream serves events from a test server and opens a stream against it.
func openStream(t *testing.T, events ...sseEvent) llmlab.Stream {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)

	s, err := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL)).Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// drain reads s to io.EOF, failing on any other error.
func drain(t *testing.T, s llmlab.Stream) []llmlab.Event {
	t.Helper()
	var out []llmlab.Event
	for {
		evt, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, evt)
	}
}
