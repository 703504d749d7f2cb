// Package yaml loads exercise catalogs from YAML files.
//
// A catalog file holds a list of exercises:
//
//	exercises:
//	  - id: summarise
//	    title: Summarise
//	    system_prompt: Summarise the user's text in three bullet points.
//	    temperature: 0.3
//	    stream: false
//
// Exercises stream by default; stream: false fetches the reply in one
// request.
package yaml

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/llmlab"
	"gopkg.in/yaml.v3"
)

// ErrNoMatch is returned when a glob matches no catalog files.
var ErrNoMatch = errors.New("yaml: no catalog files match")

type catalog struct {
	Exercises []exercise `yaml:"exercises"`
}

type exercise struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Placeholder  string   `yaml:"placeholder"`
	SystemPrompt string   `yaml:"system_prompt"`
	Model        string   `yaml:"model"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  *float64 `yaml:"temperature"`
	Stream       *bool    `yaml:"stream"`
}

func (e exercise) toDomain() llmlab.Exercise {
	return llmlab.Exercise{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Placeholder:  e.Placeholder,
		SystemPrompt: e.SystemPrompt,
		Model:        e.Model,
		MaxTokens:    e.MaxTokens,
		Temperature:  e.Temperature,
		Oneshot:      e.Stream != nil && !*e.Stream,
	}
}

// Decode reads one catalog. Unknown keys are rejected so that typos do not
// silently fall back to defaults. Every exercise is validated.
func Decode(r io.Reader) ([]llmlab.Exercise, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}

	out := make([]llmlab.Exercise, 0, len(c.Exercises))
	for _, e := range c.Exercises {
		ex := e.toDomain()
		if err := ex.Validate(); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		out = append(out, ex)
	}
	return out, nil
}

// LoadFile reads the catalog at name in fsys.
func LoadFile(fsys iofs.FS, name string) ([]llmlab.Exercise, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	defer f.Close()

	exercises, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return exercises, nil
}

// LoadGlob reads every catalog in fsys matching pattern, in lexical path
// order, and concatenates them. Exercise ids must be unique across files.
func LoadGlob(fsys iofs.FS, pattern string) ([]llmlab.Exercise, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("yaml: invalid glob pattern: %s", pattern)
	}

	var matches []string
	err := doublestar.GlobWalk(fsys, pattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		matches = append(matches, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
	}
	sort.Strings(matches)

	var all []llmlab.Exercise
	seen := make(map[string]string)
	for _, path := range matches {
		exercises, err := LoadFile(fsys, path)
		if err != nil {
			return nil, err
		}
		for _, ex := range exercises {
			if prev, ok := seen[ex.ID]; ok {
				return nil, fmt.Errorf("yaml: exercise %q defined in %s and %s: %w", ex.ID, prev, path, llmlab.ErrValidation)
			}
			seen[ex.ID] = path
			all = append(all, ex)
		}
	}
	return all, nil
}
