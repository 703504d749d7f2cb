package gemini

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/fwojciec/llmlab"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ llmlab.Provider  = (*Client)(nil)
	_ llmlab.Completer = (*Client)(nil)
)

// generator is the subset of [genai.Models] the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client implements [llmlab.Provider] and [llmlab.Completer] for the Google
// Gemini API.
type Client struct {
	models     generator
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets the HTTP client handed to the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := newClient(nil, opts...)
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.models = gc.Models
	return c, nil
}

func newClient(models generator, opts ...Option) *Client {
	c := &Client{
		models: models,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream starts a streaming request. The SDK connects lazily, so Stream
// waits for the first chunk: a connection failure is returned here rather
// than from the first Next.
func (c *Client) Stream(ctx context.Context, req llmlab.Request) (llmlab.Stream, error) {
	seq := c.models.GenerateContentStream(ctx, c.modelFor(req), contents(req), buildConfig(req))
	s := newStream(seq)
	if err := s.prime(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Complete sends a non-streaming request and returns the reply text.
func (c *Client) Complete(ctx context.Context, req llmlab.Request) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.modelFor(req), contents(req), buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if err := checkFinish(resp); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, t := range replyText(resp) {
		b.WriteString(t)
	}
	return b.String(), nil
}

func (c *Client) modelFor(req llmlab.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

func contents(req llmlab.Request) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}
}

func buildConfig(req llmlab.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.TopP != nil {
		topP := float32(*req.TopP)
		config.TopP = &topP
	}

	return config
}

// replyText returns the non-thought text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return nil
	}
	var out []string
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		out = append(out, p.Text)
	}
	return out
}

// checkFinish reports a reply the API stopped for safety reasons.
func checkFinish(resp *genai.GenerateContentResponse) error {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	if fr := resp.Candidates[0].FinishReason; fr == genai.FinishReasonSafety {
		return fmt.Errorf("gemini: response blocked: %s", fr)
	}
	return nil
}
