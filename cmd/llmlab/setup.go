package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/llmlab"
	bt "github.com/fwojciec/llmlab/bubbletea"
	lprom "github.com/fwojciec/llmlab/prometheus"
	"github.com/fwojciec/llmlab/retry"
	"github.com/fwojciec/llmlab/session"
	"github.com/fwojciec/llmlab/yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// newLogger builds the process logger. A log file takes JSON lines. Without
// one, headless runs log to stderr in console format and the TUI, which
// owns the terminal, does not log at all.
func newLogger(path, level string, headless bool, stderr io.Writer) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("log level: %w", err)
	}

	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), func() {}, fmt.Errorf("open log: %w", err)
		}
		l := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
		return l, func() { f.Close() }, nil
	case headless:
		w := zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
		return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), func() {}, nil
	default:
		return zerolog.Nop(), func() {}, nil
	}
}

// loadExercises reads the catalogs matching pattern, or returns the built-in
// catalog when pattern is empty. Absolute patterns are split into a base
// directory and a relative glob.
func loadExercises(pattern string) ([]llmlab.Exercise, error) {
	if pattern == "" {
		return llmlab.DefaultExercises(), nil
	}
	base, rel := doublestar.SplitPattern(pattern)
	exercises, err := yaml.LoadGlob(os.DirFS(base), rel)
	if err != nil {
		return nil, fmt.Errorf("exercises: %w", err)
	}
	return exercises, nil
}

// buildTabs gives every exercise its own controller. Oneshot exercises go
// through Complete; everything else streams. Connection retries wrap the
// provider when retries > 0.
func buildTabs(exercises []llmlab.Exercise, c client, retries uint64, rec session.Recorder, log zerolog.Logger) []bt.Tab {
	tabs := make([]bt.Tab, 0, len(exercises))
	for _, ex := range exercises {
		var p llmlab.Provider = c
		if ex.Oneshot {
			p = llmlab.Oneshot(c)
		}
		if retries > 0 {
			p = retry.New(p, retry.WithMaxRetries(retries), retry.WithLogger(log.With().Str("exercise", ex.ID).Logger()))
		}
		ctrl := session.NewController(p,
			session.WithName(ex.ID),
			session.WithControllerLogger(log),
			session.WithRecorder(rec),
		)
		tabs = append(tabs, bt.Tab{Exercise: ex, Controller: ctrl})
	}
	return tabs
}

// findTab returns the tab for id, or the first tab when id is empty.
func findTab(tabs []bt.Tab, id string) (bt.Tab, error) {
	if len(tabs) == 0 {
		return bt.Tab{}, errors.New("no exercises")
	}
	if id == "" {
		return tabs[0], nil
	}
	for _, t := range tabs {
		if t.Exercise.ID == id {
			return t, nil
		}
	}
	return bt.Tab{}, fmt.Errorf("unknown exercise %q", id)
}

// serveMetrics serves the registry on addr/metrics until the returned
// server is shut down.
func serveMetrics(addr string, g prometheus.Gatherer, log zerolog.Logger) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", lprom.Handler(g))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv, ln.Addr(), nil
}
