// Command llmlab is a terminal exercise book for learning how LLM APIs
// behave: each exercise is a form whose reply streams into a result card.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... llmlab [flags]
//	GEMINI_API_KEY=gk-...    llmlab [flags]
//	OPENAI_API_KEY=sk-...    llmlab [flags]
//
// Keys may also come from a .env file in the working directory.
//
// Flags:
//
//	-provider string      Provider: anthropic, gemini, openai (auto-detected from env vars if omitted)
//	-api-key string       API key (overrides provider's env var)
//	-model string         Default model ID (exercises may override it)
//	-exercises string     Glob of YAML exercise catalogs (default: built-in catalog)
//	-exercise string      Exercise to open first, or to run with -prompt
//	-prompt string        Stream one reply to stdout instead of starting the TUI
//	-retries uint         Connection retries per submission (default 2)
//	-log string           Log file (the TUI logs nowhere by default)
//	-log-level string     Log level (default "info")
//	-metrics-addr string  Serve Prometheus metrics on this address, e.g. :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/fwojciec/llmlab"
	bt "github.com/fwojciec/llmlab/bubbletea"
	lprom "github.com/fwojciec/llmlab/prometheus"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "llmlab: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var (
		providerFlag = flag.String("provider", "", "Provider: anthropic, gemini, openai (auto-detected from env vars if omitted)")
		apiKey       = flag.String("api-key", "", "API key (overrides provider's env var)")
		model        = flag.String("model", "", "Default model ID (exercises may override it)")
		catalog      = flag.String("exercises", "", "Glob of YAML exercise catalogs (default: built-in catalog)")
		exerciseID   = flag.String("exercise", "", "Exercise to open first, or to run with -prompt")
		prompt       = flag.String("prompt", "", "Stream one reply to stdout instead of starting the TUI")
		retries      = flag.Uint64("retries", 2, "Connection retries per submission")
		logPath      = flag.String("log", "", "Log file (the TUI logs nowhere by default)")
		logLevel     = flag.String("log-level", "info", "Log level")
		metricsAddr  = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	headless := *prompt != ""
	log, closeLog, err := newLogger(*logPath, *logLevel, headless, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	exercises, err := loadExercises(*catalog)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(*providerFlag, *apiKey, envKeys{
		anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		gemini:    os.Getenv("GEMINI_API_KEY"),
		openai:    os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, *model)
	if err != nil {
		return err
	}
	log.Info().Str("provider", cfg.name).Int("exercises", len(exercises)).Msg("starting")

	reg := prometheus.NewRegistry()
	recorder := lprom.NewRecorder(reg)
	if *metricsAddr != "" {
		srv, addr, err := serveMetrics(*metricsAddr, reg, log)
		if err != nil {
			return err
		}
		log.Info().Stringer("addr", addr).Msg("serving metrics")
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	tabs := buildTabs(exercises, client, *retries, recorder, log)

	if headless {
		tab, err := findTab(tabs, *exerciseID)
		if err != nil {
			return err
		}
		return runHeadless(ctx, tab, *prompt, os.Stdout)
	}

	m := bt.New(tabs, llmlab.DefaultTheme(), bt.WithInitialTab(*exerciseID))
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
