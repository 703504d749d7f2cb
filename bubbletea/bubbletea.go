// Package bubbletea provides a Bubble Tea TUI for the exercise book. Each
// exercise is a tab bound to its own session controller; the model renders
// whatever state the controller publishes.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/llmlab"
)

// Controller is the published-state contract a tab observes and drives.
// *session.Controller implements it.
type Controller interface {
	Submit(ctx context.Context, req llmlab.Request) error
	CancelCurrent()
	Reset()
	Snapshot() llmlab.Snapshot
	Subscribe() (<-chan llmlab.Snapshot, func())
}

// Tab pairs an exercise with the controller that runs its submissions.
type Tab struct {
	Exercise   llmlab.Exercise
	Controller Controller
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits; cancelling ctx quits it. On exit every tab's in-flight reply is
// cancelled and its subscription released.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	return err
}

// SnapshotMsg delivers a controller's published state to the model.
type SnapshotMsg struct {
	Tab      int
	Snapshot llmlab.Snapshot
}

// SubmitDoneMsg reports that a submission connected or failed to.
type SubmitDoneMsg struct {
	Tab int
	Err error
}

// listen waits for the next published state of tab i. It yields nil once the
// subscription is closed, ending the chain.
func listen(i int, ch <-chan llmlab.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Tab: i, Snapshot: snap}
	}
}

// submit runs Controller.Submit off the update loop; it blocks until the
// connection is established.
func submit(i int, c Controller, req llmlab.Request) tea.Cmd {
	return func() tea.Msg {
		return SubmitDoneMsg{Tab: i, Err: c.Submit(context.Background(), req)}
	}
}
