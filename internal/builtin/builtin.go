/*
Package builtin ships the embedded voice command pack.

Commands are declared in commands.yaml and bound at load time to an
EditorBridge, the single seam between the dispatch engine and whatever
editor host is attached. Tests and the CLI use the loopback bridge; a
real host plugs in its own.
*/
package builtin

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/khanglvm/voice-hub/internal/command"
	"github.com/khanglvm/voice-hub/internal/feedback"
	"github.com/khanglvm/voice-hub/internal/workspace"
)

//go:embed commands.yaml
var commandsYAML []byte

// branchTool is handled from workspace context instead of the bridge.
const branchTool = "workspace_git_branch"

// Spec is one declared command before it is bound to a bridge.
type Spec struct {
	ID          string   `yaml:"id"`
	Intent      string   `yaml:"intent"`
	Category    string   `yaml:"category"`
	Tool        string   `yaml:"tool"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns"`
	Examples    []string `yaml:"examples"`
	Say         bool     `yaml:"say"`
}

type specFile struct {
	Commands []Spec `yaml:"commands"`
}

// EditorBridge executes one named editor tool with resolved parameters
// and returns a human-readable result.
type EditorBridge interface {
	Execute(ctx context.Context, tool string, params map[string]string) (string, error)
}

// LoopbackBridge is the no-editor bridge: it reports what would have run.
type LoopbackBridge struct{}

func (LoopbackBridge) Execute(_ context.Context, tool string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return fmt.Sprintf("executed %s", tool), nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return fmt.Sprintf("executed %s (%s)", tool, strings.Join(parts, ", ")), nil
}

// Load parses the embedded command pack.
func Load() ([]Spec, error) {
	var file specFile
	if err := yaml.Unmarshal(commandsYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse embedded commands: %w", err)
	}
	if len(file.Commands) == 0 {
		return nil, fmt.Errorf("embedded command pack is empty")
	}
	return file.Commands, nil
}

// Definitions loads the embedded pack and binds every command to the
// given bridge and feedback service.
func Definitions(bridge EditorBridge, fb feedback.Service) ([]*command.Definition, error) {
	specs, err := Load()
	if err != nil {
		return nil, err
	}

	defs := make([]*command.Definition, 0, len(specs))
	for _, spec := range specs {
		defs = append(defs, &command.Definition{
			ID:          spec.ID,
			Intent:      spec.Intent,
			Category:    spec.Category,
			Description: spec.Description,
			Patterns:    spec.Patterns,
			Examples:    spec.Examples,
			Handler:     bindHandler(spec, bridge, fb),
		})
	}
	return defs, nil
}

// bindHandler builds the handler closure for one spec.
func bindHandler(spec Spec, bridge EditorBridge, fb feedback.Service) command.Handler {
	return func(ctx context.Context, params map[string]string, ws workspace.Snapshot) (*command.HandlerResult, error) {
		var message string
		var err error

		if spec.Tool == branchTool {
			message = describeBranch(ws)
		} else {
			message, err = bridge.Execute(ctx, spec.Tool, params)
		}

		if err != nil {
			feedback.Play(fb, feedback.CueError)
			return &command.HandlerResult{
				Success: false,
				Message: fmt.Sprintf("%s failed: %v", spec.Tool, err),
			}, nil
		}

		feedback.Play(fb, feedback.CueSuccess)
		if spec.Say {
			feedback.Say(fb, message)
		}
		return &command.HandlerResult{Success: true, Message: message}, nil
	}
}

func describeBranch(ws workspace.Snapshot) string {
	if ws.GitBranch == "" {
		return "no git branch is set in the workspace"
	}
	return fmt.Sprintf("you are on branch %s", ws.GitBranch)
}
