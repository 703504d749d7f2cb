package bubbletea

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/llmlab"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var _ tea.Model = Model{}

// Option configures a Model.
type Option func(*Model)

// WithInitialTab selects the tab whose exercise has the given id. Unknown
// ids leave the first tab selected.
func WithInitialTab(id string) Option {
	return func(m *Model) {
		for i, t := range m.tabs {
			if t.Exercise.ID == id {
				m.active = i
				return
			}
		}
	}
}

// tabState is the view-side state of one exercise tab.
type tabState struct {
	Tab
	updates     <-chan llmlab.Snapshot
	unsubscribe func()

	snap   llmlab.Snapshot
	prompt string
	result *ResultBlock
	err    error // submission error that was not published
}

// apply folds a published snapshot into the tab. A new session id starts a
// fresh result card; an empty one means the controller was reset.
func (t *tabState) apply(snap llmlab.Snapshot, theme llmlab.Theme) {
	if snap.SessionID != t.snap.SessionID {
		t.result = NewResultBlock(theme)
		if snap.SessionID == "" {
			t.prompt = ""
		}
	}
	t.result.Set(snap.Text)
	t.snap = snap
}

// Model is the Bubble Tea model for the exercise book.
type Model struct {
	// Input is the prompt input. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable result card. Exported for test access.
	Viewport viewport.Model

	tabs   []*tabState
	active int
	theme  llmlab.Theme
	styles Styles
	ready  bool
}

// New creates a Model with one tab per entry and subscribes to every tab's
// controller. Call Close (Run does) to release the subscriptions.
func New(tabs []Tab, theme llmlab.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:  ti,
		theme:  theme,
		styles: NewStyles(theme),
	}
	for _, t := range tabs {
		ch, unsubscribe := t.Controller.Subscribe()
		ts := &tabState{
			Tab:         t,
			updates:     ch,
			unsubscribe: unsubscribe,
			result:      NewResultBlock(theme),
		}
		ts.apply(t.Controller.Snapshot(), theme)
		m.tabs = append(m.tabs, ts)
	}
	for _, o := range opts {
		o(&m)
	}
	m = m.syncPlaceholder()
	return m
}

// ActiveTab returns the index of the selected tab.
func (m Model) ActiveTab() int { return m.active }

// Snapshot returns the last state received for the selected tab.
func (m Model) Snapshot() llmlab.Snapshot {
	if t := m.current(); t != nil {
		return t.snap
	}
	return llmlab.Snapshot{}
}

// Err returns the error shown on the selected tab, if any.
func (m Model) Err() error {
	t := m.current()
	if t == nil {
		return nil
	}
	if t.err != nil {
		return t.err
	}
	return t.snap.Err
}

// Close cancels every tab's in-flight reply and unsubscribes from its
// controller.
func (m Model) Close() {
	for _, t := range m.tabs {
		t.Controller.CancelCurrent()
		t.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	for i, t := range m.tabs {
		cmds = append(cmds, listen(i, t.updates))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		if msg.Tab < 0 || msg.Tab >= len(m.tabs) {
			return m, nil
		}
		t := m.tabs[msg.Tab]
		t.apply(msg.Snapshot, m.theme)
		if msg.Tab == m.active {
			m = m.refresh()
		}
		return m, listen(msg.Tab, t.updates)

	case SubmitDoneMsg:
		if msg.Tab >= 0 && msg.Tab < len(m.tabs) && errors.Is(msg.Err, llmlab.ErrValidation) {
			m.tabs[msg.Tab].err = msg.Err
			m = m.refresh()
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n")
	b.WriteString(m.description())
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// Tab bar, description, status line and input take one row each.
	vpHeight := max(msg.Height-4, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.current()
	if t == nil {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if t.snap.Streaming() {
			t.Controller.CancelCurrent()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		t.Controller.CancelCurrent()
		return m, nil

	case tea.KeyCtrlR:
		t.Controller.Reset()
		t.prompt = ""
		t.err = nil
		m.Input.SetValue("")
		return m.refresh(), nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		m.Input.SetValue("")
		t.prompt = text
		t.err = nil
		return m.refresh(), submit(m.active, t.Controller, t.Exercise.Request(text))

	case tea.KeyTab:
		return m.selectTab(m.active + 1), nil

	case tea.KeyShiftTab:
		return m.selectTab(m.active - 1), nil
	}

	// Character keys go to the input only; 'j' and 'k' are text here, not
	// scrolling.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) selectTab(i int) Model {
	n := len(m.tabs)
	m.active = ((i % n) + n) % n
	return m.syncPlaceholder().refresh()
}

func (m Model) syncPlaceholder() Model {
	m.Input.Placeholder = "Type a prompt..."
	if t := m.current(); t != nil && t.Exercise.Placeholder != "" {
		m.Input.Placeholder = t.Exercise.Placeholder
	}
	return m
}

func (m Model) current() *tabState {
	if len(m.tabs) == 0 {
		return nil
	}
	return m.tabs[m.active]
}

// refresh re-renders the selected tab into the viewport and follows the
// bottom of the reply.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	t := m.current()
	if t == nil {
		return ""
	}
	width := m.Viewport.Width

	var parts []string
	if t.prompt != "" {
		parts = append(parts, NewPromptBlock(t.prompt, m.styles).View(width))
	}
	if t.result.Text() != "" {
		parts = append(parts, t.result.View(width))
	}
	if err := m.Err(); err != nil {
		parts = append(parts, NewErrorBlock(err, m.styles).View(width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) tabBar() string {
	titles := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		title := t.Exercise.Title
		if t.snap.Streaming() {
			title += " •"
		}
		if i == m.active {
			titles[i] = m.styles.Tab.Render(title)
		} else {
			titles[i] = m.styles.TabInactive.Render(title)
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.Viewport.Width).Render(strings.Join(titles, "  "))
}

func (m Model) description() string {
	t := m.current()
	if t == nil {
		return ""
	}
	return m.styles.Muted.Render(m.truncate(t.Exercise.Description))
}

func (m Model) statusLine() string {
	t := m.current()
	if t == nil {
		return m.styles.Muted.Render(m.truncate("No exercises, Ctrl+C to quit"))
	}
	chars := uniseg.GraphemeClusterCount(t.snap.Text)
	switch {
	case t.snap.Streaming():
		return m.styles.Accent.Render(m.truncate(fmt.Sprintf("Streaming... %d chars, Esc to cancel, Enter to resubmit", chars)))
	case m.Err() != nil:
		return m.styles.Error.Render(m.truncate("Failed, Enter to retry, Ctrl+R to reset"))
	case t.snap.SessionID != "":
		return m.styles.Success.Render(m.truncate(fmt.Sprintf("%d chars, Enter to submit, Ctrl+R to reset, Tab to switch", chars)))
	default:
		return m.styles.Muted.Render(m.truncate("Enter to submit, Tab to switch exercise, Ctrl+C to quit"))
	}
}

// truncate cuts plain text to the viewport width before styling so escape
// sequences are never split.
func (m Model) truncate(s string) string {
	if m.Viewport.Width <= 0 {
		return s
	}
	return runewidth.Truncate(s, m.Viewport.Width, "…")
}
