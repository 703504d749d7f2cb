package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/llmlab"
	"github.com/fwojciec/llmlab/anthropic"
	"github.com/fwojciec/llmlab/gemini"
	"github.com/fwojciec/llmlab/openai"
)

// client streams and completes. Every provider package implements both.
type client interface {
	llmlab.Provider
	llmlab.Completer
}

// envKeys holds the API keys found in the environment. Env is only read in
// run().
type envKeys struct {
	anthropic string
	gemini    string
	openai    string
}

type providerConfig struct {
	name string
	key  string
}

var envNames = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// resolveConfig selects the provider and its key. An explicit -api-key
// overrides the env var of the selected provider.
func resolveConfig(providerFlag, apiKeyFlag string, env envKeys) (providerConfig, error) {
	byName := map[string]string{
		"anthropic": env.anthropic,
		"gemini":    env.gemini,
		"openai":    env.openai,
	}

	name := providerFlag
	if name == "" {
		var found []string
		for _, n := range []string{"anthropic", "gemini", "openai"} {
			if byName[n] != "" {
				found = append(found, n)
			}
		}
		switch len(found) {
		case 0:
			return providerConfig{}, fmt.Errorf("no API key found: set ANTHROPIC_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY (or use -provider and -api-key flags)")
		case 1:
			name = found[0]
		default:
			vars := make([]string, len(found))
			for i, n := range found {
				vars[i] = envNames[n]
			}
			return providerConfig{}, fmt.Errorf("multiple API keys found (%s): use -provider flag to select", strings.Join(vars, ", "))
		}
	}

	envKey, ok := byName[name]
	if !ok {
		return providerConfig{}, fmt.Errorf("unknown provider %q: must be \"anthropic\", \"gemini\" or \"openai\"", name)
	}
	key := apiKeyFlag
	if key == "" {
		key = envKey
	}
	if key == "" {
		return providerConfig{}, fmt.Errorf("%s not set (use -api-key flag or environment variable)", envNames[name])
	}
	return providerConfig{name: name, key: key}, nil
}

// newClient constructs the client for cfg. An empty model keeps the
// provider's default.
func newClient(ctx context.Context, cfg providerConfig, model string) (client, error) {
	switch cfg.name {
	case "anthropic":
		var opts []anthropic.Option
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		return anthropic.New(cfg.key, opts...), nil
	case "gemini":
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		c, err := gemini.New(ctx, cfg.key, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return c, nil
	case "openai":
		var opts []openai.Option
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		return openai.New(cfg.key, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.name)
	}
}
