/*
Package command defines voice command declarations and the catalog that
holds them.

A command is declared once by its author with a set of natural-language
pattern templates (e.g. "explain {selection}") and an opaque handler.
The catalog is the single source of truth for command metadata, used by
the matcher, the dispatcher, the help index, and the CLI.
*/
package command

import (
	"context"
	"fmt"

	"github.com/khanglvm/voice-hub/internal/workspace"
)

// HandlerResult is what a command handler returns to the engine.
// Data is passed through to the caller untouched.
type HandlerResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler executes a matched command with its resolved parameters and a
// snapshot of the workspace context. Handlers may block (network calls,
// engine round-trips); the engine imposes no timeout of its own.
type Handler func(ctx context.Context, params map[string]string, ws workspace.Snapshot) (*HandlerResult, error)

// Definition is an author-declared voice command. Immutable after
// registration.
type Definition struct {
	// ID uniquely identifies the command. Collision is a registration error.
	ID string `json:"id" yaml:"id"`

	// Patterns are template strings with optional {slot} placeholders,
	// e.g. "set time of day to {time}". Order matters for help output only.
	Patterns []string `json:"patterns" yaml:"patterns"`

	// Intent is a namespaced grouping key ("ai.explain"). Not unique.
	Intent string `json:"intent" yaml:"intent"`

	// Category is the coarse browsing group ("ai", "git", "lighting").
	Category string `json:"category" yaml:"category"`

	// Description and Examples are human-facing help text; the matcher
	// never looks at them.
	Description string   `json:"description" yaml:"description"`
	Examples    []string `json:"examples,omitempty" yaml:"examples,omitempty"`

	// Handler is invoked by the dispatcher. Opaque to the engine.
	Handler Handler `json:"-" yaml:"-"`
}

// ParsedCommand is the output of matching one utterance against one
// command. Unfilled slots are absent from Params, never empty strings.
type ParsedCommand struct {
	CommandID      string            `json:"commandId"`
	Intent         string            `json:"intent"`
	RawText        string            `json:"rawText"`
	MatchedPattern string            `json:"matchedPattern"`
	Params         map[string]string `json:"params"`

	// Confidence is the match quality in [0,1] before any learning
	// adjustment.
	Confidence float64 `json:"confidence"`
}

// DuplicateIDError is returned when a definition's ID is already
// registered. The catalog keeps the first registration.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("command %q is already registered", e.ID)
}

// Validate checks the declaration-level invariants that do not depend on
// pattern compilation (the dispatcher's engine compiles patterns and
// rejects authoring errors such as adjacent slots).
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("command definition missing id")
	}
	if len(d.Patterns) == 0 {
		return fmt.Errorf("command %q has no patterns", d.ID)
	}
	for _, p := range d.Patterns {
		if p == "" {
			return fmt.Errorf("command %q has an empty pattern", d.ID)
		}
	}
	return nil
}
