package bubbletea_test

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/llmlab"
	bt "github.com/fwojciec/llmlab/bubbletea"
	"github.com/stretchr/testify/require"
)

// fakeController records what the model asks of it and lets tests publish
// snapshots by hand.
type fakeController struct {
	mu        sync.Mutex
	requests  []llmlab.Request
	cancels   int
	resets    int
	submitErr error

	snap    llmlab.Snapshot
	updates chan llmlab.Snapshot
	closed  bool
}

var _ bt.Controller = (*fakeController)(nil)

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan llmlab.Snapshot, 16)}
}

func (c *fakeController) Submit(_ context.Context, req llmlab.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	return c.submitErr
}

func (c *fakeController) CancelCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels++
}

func (c *fakeController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
}

func (c *fakeController) Snapshot() llmlab.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *fakeController) Subscribe() (<-chan llmlab.Snapshot, func()) {
	return c.updates, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.closed {
			c.closed = true
			close(c.updates)
		}
	}
}

func (c *fakeController) Requests() []llmlab.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llmlab.Request(nil), c.requests...)
}

func (c *fakeController) Counts() (cancels, resets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancels, c.resets
}

func exercise(id, title string) llmlab.Exercise {
	return llmlab.Exercise{ID: id, Title: title, Description: title + " exercise", SystemPrompt: "be brief"}
}

// initModel creates a model over tabs and sizes it to 80x24.
func initModel(t *testing.T, tabs ...bt.Tab) bt.Model {
	t.Helper()
	return initModelWithSize(t, 80, 24, tabs...)
}

func initModelWithSize(t *testing.T, width, height int, tabs ...bt.Tab) bt.Model {
	t.Helper()
	m := bt.New(tabs, llmlab.DefaultTheme())
	t.Cleanup(m.Close)
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// typeText puts text into the prompt input.
func typeText(t *testing.T, m bt.Model, text string) bt.Model {
	t.Helper()
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}
