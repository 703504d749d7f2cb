package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/fwojciec/llmlab"
	goopenai "github.com/sashabaranov/go-openai"
)

// Interface compliance checks.
var (
	_ llmlab.Provider  = (*Client)(nil)
	_ llmlab.Completer = (*Client)(nil)
)

// Client implements [llmlab.Provider] and [llmlab.Completer] for the OpenAI
// Chat Completions API.
type Client struct {
	client *goopenai.Client
	model  string
}

// Option configures a [Client].
type Option func(*config)

type config struct {
	sdk   goopenai.ClientConfig
	model string
}

// WithBaseURL sets the API base URL, e.g. for a compatible server or
// httptest.
func WithBaseURL(url string) Option {
	return func(c *config) { c.sdk.BaseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.sdk.HTTPClient = hc }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// New creates a new OpenAI [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	cfg := config{sdk: goopenai.DefaultConfig(apiKey), model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}
	return &Client{
		client: goopenai.NewClientWithConfig(cfg.sdk),
		model:  cfg.model,
	}
}

// Stream sends a streaming chat completion request and returns once the
// response headers have arrived.
func (c *Client) Stream(ctx context.Context, req llmlab.Request) (llmlab.Stream, error) {
	r := c.buildRequest(req)
	r.Stream = true
	s, err := c.client.CreateChatCompletionStream(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return newStream(ctx, s), nil
}

// Complete sends a non-streaming request and returns the first choice.
func (c *Client) Complete(ctx context.Context, req llmlab.Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(req llmlab.Request) goopenai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var msgs []goopenai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	r := goopenai.ChatCompletionRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		r.Temperature = nonZero(*req.Temperature)
	}
	if req.TopP != nil {
		r.TopP = nonZero(*req.TopP)
	}
	return r
}

// nonZero converts v for the SDK, which omits zero values from the request
// body. Zero is sent as the smallest positive float32 instead.
func nonZero(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}
