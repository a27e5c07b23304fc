// Package breathing implements the breathing-exercise catalog and the
// session timer that walks a user through a pattern's steps and cycles.
package breathing

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultExerciseID is served when a requested exercise is unknown.
const DefaultExerciseID = "calm"

// Step is one timed phase of a breathing pattern.
type Step struct {
	Action      string `json:"action" yaml:"action"`
	Duration    int    `json:"duration" yaml:"duration"`
	Instruction string `json:"instruction" yaml:"instruction"`
}

// Exercise is an immutable breathing pattern definition. Values are shared
// by reference between sessions; use the accessors, which never expose the
// underlying step slice.
type Exercise struct {
	id          string
	name        string
	description string
	steps       []Step
	cycles      int
}

// ID returns the catalog identifier.
func (e *Exercise) ID() string { return e.id }

// Name returns the display name.
func (e *Exercise) Name() string { return e.name }

// Description returns the display description.
func (e *Exercise) Description() string { return e.description }

// Cycles returns how many times the step sequence repeats.
func (e *Exercise) Cycles() int { return e.cycles }

// StepCount returns the number of steps in one cycle.
func (e *Exercise) StepCount() int { return len(e.steps) }

// Step returns the step at index i.
func (e *Exercise) Step(i int) Step { return e.steps[i] }

// Steps returns a copy of the step sequence.
func (e *Exercise) Steps() []Step {
	out := make([]Step, len(e.steps))
	copy(out, e.steps)
	return out
}

// CycleDuration is the length of one pass through the steps.
func (e *Exercise) CycleDuration() time.Duration {
	total := 0
	for _, s := range e.steps {
		total += s.Duration
	}
	return time.Duration(total) * time.Second
}

// TotalDuration is the length of a full, uninterrupted run.
func (e *Exercise) TotalDuration() time.Duration {
	return e.CycleDuration() * time.Duration(e.cycles)
}

// WithCycles returns a copy of the exercise repeating n times.
func (e *Exercise) WithCycles(n int) (*Exercise, error) {
	if n < 1 {
		return nil, fmt.Errorf("exercise %s: cycles must be >= 1, got %d", e.id, n)
	}
	return &Exercise{
		id:          e.id,
		name:        e.name,
		description: e.description,
		steps:       e.Steps(),
		cycles:      n,
	}, nil
}

type exerciseJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`
	Cycles      int    `json:"cycles"`
}

// MarshalJSON renders the exercise in the shape clients consume.
func (e *Exercise) MarshalJSON() ([]byte, error) {
	return json.Marshal(exerciseJSON{
		ID:          e.id,
		Name:        e.name,
		Description: e.description,
		Steps:       e.steps,
		Cycles:      e.cycles,
	})
}

// Catalog maps exercise identifiers to definitions.
type Catalog struct {
	byID      map[string]*Exercise
	order     []string
	defaultID string
}

type catalogDocument struct {
	Default   string `yaml:"default"`
	Exercises []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Cycles      int    `yaml:"cycles"`
		Steps       []Step `yaml:"steps"`
	} `yaml:"exercises"`
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Exercises) == 0 {
		return nil, errors.New("catalog has no exercises")
	}

	c := &Catalog{
		byID:      make(map[string]*Exercise, len(doc.Exercises)),
		defaultID: doc.Default,
	}
	for _, raw := range doc.Exercises {
		if raw.ID == "" {
			return nil, errors.New("catalog entry without id")
		}
		if _, dup := c.byID[raw.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %q", raw.ID)
		}
		if len(raw.Steps) == 0 {
			return nil, fmt.Errorf("exercise %q has no steps", raw.ID)
		}
		if raw.Cycles < 1 {
			return nil, fmt.Errorf("exercise %q: cycles must be >= 1", raw.ID)
		}
		for i, s := range raw.Steps {
			if s.Duration < 1 {
				return nil, fmt.Errorf("exercise %q step %d: duration must be >= 1", raw.ID, i)
			}
		}

		steps := make([]Step, len(raw.Steps))
		copy(steps, raw.Steps)
		c.byID[raw.ID] = &Exercise{
			id:          raw.ID,
			name:        raw.Name,
			description: raw.Description,
			steps:       steps,
			cycles:      raw.Cycles,
		}
		c.order = append(c.order, raw.ID)
	}

	if c.defaultID == "" {
		c.defaultID = DefaultExerciseID
	}
	if _, ok := c.byID[c.defaultID]; !ok {
		return nil, fmt.Errorf("default exercise %q is not defined", c.defaultID)
	}

	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic("breathing: embedded catalog is invalid: " + err.Error())
	}
	return c
})

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// Get returns the exercise for id, or the default exercise when id is unknown.
func (c *Catalog) Get(id string) *Exercise {
	if ex, ok := c.byID[id]; ok {
		return ex
	}
	return c.byID[c.defaultID]
}

// Lookup returns the exercise for id and whether it exists.
func (c *Catalog) Lookup(id string) (*Exercise, bool) {
	ex, ok := c.byID[id]
	return ex, ok
}

// IDs returns exercise identifiers in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// DefaultID returns the fallback exercise identifier.
func (c *Catalog) DefaultID() string {
	return c.defaultID
}
