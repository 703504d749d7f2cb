package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/llmlab"
	bt "github.com/fwojciec/llmlab/bubbletea"
)

// runHeadless submits prompt to the tab's exercise and copies the reply to w
// as it grows. Cancelling ctx stops the reply; what arrived so far stays
// written.
func runHeadless(ctx context.Context, tab bt.Tab, prompt string, w io.Writer) error {
	updates, unsubscribe := tab.Controller.Subscribe()
	defer unsubscribe()

	if err := tab.Controller.Submit(ctx, tab.Exercise.Request(prompt)); err != nil {
		if errors.Is(err, llmlab.ErrCancelled) {
			return nil
		}
		return err
	}

	written := 0
	for snap := range updates {
		if len(snap.Text) > written {
			if _, err := io.WriteString(w, snap.Text[written:]); err != nil {
				tab.Controller.CancelCurrent()
				return fmt.Errorf("write reply: %w", err)
			}
			written = len(snap.Text)
		}
		switch snap.Status {
		case llmlab.StatusError:
			fmt.Fprintln(w)
			return snap.Err
		case llmlab.StatusIdle:
			fmt.Fprintln(w)
			return nil
		}
	}
	return nil
}
