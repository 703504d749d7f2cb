package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/llmlab"
	"github.com/fwojciec/llmlab/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSSE = "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"type\":\"message\",\"role\":\"assistant\",\"content\":[],\"model\":\"m\",\"stop_reason\":null,\"stop_sequence\":null,\"usage\":{\"input_tokens\":0,\"output_tokens\":0}}}\n\nevent: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(minimalSSE))
	}))
	defer srv.Close()

	temp := 0.7
	topP := 0.9
	client := anthropic.New("test-api-key", anthropic.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), llmlab.Request{
		Prompt:       "Hello",
		Model:        "claude-opus-4-20250514",
		SystemPrompt: "You are helpful.",
		MaxTokens:    1024,
		Temperature:  &temp,
		TopP:         &topP,
	})
	require.NoError(t, err)
	defer s.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))

	assert.Equal(t, "claude-opus-4-20250514", body["model"])
	assert.Equal(t, float64(1024), body["max_tokens"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, "You are helpful.", body["system"])
	assert.Equal(t, 0.7, body["temperature"])
	assert.Equal(t, 0.9, body["top_p"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	msg0 := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg0["role"])
	assert.Equal(t, "Hello", msg0["content"])
}

func TestClient_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("built-in model and max tokens", func(t *testing.T) {
		t.Parallel()
		var captured []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(minimalSSE))
		}))
		defer srv.Close()

		client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
		s, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
		require.NoError(t, err)
		defer s.Close()

		var body map[string]any
		require.NoError(t, json.Unmarshal(captured, &body))
		assert.Equal(t, "claude-sonnet-4-20250514", body["model"])
		assert.Equal(t, float64(4096), body["max_tokens"])
		assert.NotContains(t, body, "system")
		assert.NotContains(t, body, "temperature")
	})

	t.Run("client model applies when the request names none", func(t *testing.T) {
		t.Parallel()
		var captured []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(minimalSSE))
		}))
		defer srv.Close()

		client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL), anthropic.WithModel("claude-haiku"))
		s, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
		require.NoError(t, err)
		defer s.Close()

		var body map[string]any
		require.NoError(t, json.Unmarshal(captured, &body))
		assert.Equal(t, "claude-haiku", body["model"])
	})
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: integer above 1 expected"}}`))
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid_request_error")
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestClient_HTTPErrorNonJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(url))
	_, err := client.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic:")
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	t.Run("concatenates text blocks", func(t *testing.T) {
		t.Parallel()
		var captured []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"thinking","thinking":"hmm"},{"type":"text","text":"{\"total\":"},{"type":"text","text":"120}"}],"stop_reason":"end_turn"}`))
		}))
		defer srv.Close()

		client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
		text, err := client.Complete(context.Background(), llmlab.Request{Prompt: "Invoice total $120"})
		require.NoError(t, err)
		assert.Equal(t, `{"total":120}`, text)

		var body map[string]any
		require.NoError(t, json.Unmarshal(captured, &body))
		assert.NotContains(t, body, "stream")
	})

	t.Run("HTTP error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
		}))
		defer srv.Close()

		client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
		_, err := client.Complete(context.Background(), llmlab.Request{Prompt: "Hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit_error")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
		_, err := client.Complete(context.Background(), llmlab.Request{Prompt: "Hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})
}

func TestClient_Oneshot(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"all at once"}]}`))
	}))
	defer srv.Close()

	p := llmlab.Oneshot(anthropic.New("test-key", anthropic.WithBaseURL(srv.URL)))
	s, err := p.Stream(context.Background(), llmlab.Request{Prompt: "Hi"})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []llmlab.Event{llmlab.EventTextDelta{Delta: "all at once"}}, drain(t, s))
}
