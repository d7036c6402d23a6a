package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestNewServeCmd(t *testing.T) {
	cmd := NewServeCmd()
	if cmd == nil {
		t.Fatal("NewServeCmd() returned nil")
	}
	if cmd.Use != "serve" {
		t.Errorf("Expected Use='serve', got %q", cmd.Use)
	}
}

func TestNewDispatchCmd(t *testing.T) {
	cmd := NewDispatchCmd()
	if cmd == nil {
		t.Fatal("NewDispatchCmd() returned nil")
	}

	if cmd.Flags().Lookup("json") == nil {
		t.Error("Flag 'json' not registered")
	}
	if cmd.Flags().Lookup("selection") == nil {
		t.Error("Flag 'selection' not registered")
	}

	// Requires at least one word of utterance.
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("dispatch accepted zero args")
	}
	if err := cmd.Args(cmd, []string{"save", "the", "level"}); err != nil {
		t.Errorf("dispatch rejected a valid utterance: %v", err)
	}
}

func TestNewListCmd(t *testing.T) {
	cmd := NewListCmd()
	if cmd == nil {
		t.Fatal("NewListCmd() returned nil")
	}
	if cmd.Use != "list" {
		t.Errorf("Expected Use='list', got %q", cmd.Use)
	}
	if len(cmd.Aliases) == 0 || cmd.Aliases[0] != "ls" {
		t.Errorf("Expected alias 'ls', got %v", cmd.Aliases)
	}
	if cmd.Flags().Lookup("json") == nil {
		t.Error("Flag 'json' not registered")
	}
	if cmd.Flags().Lookup("category") == nil {
		t.Error("Flag 'category' not registered")
	}
}

func TestNewSearchCmd(t *testing.T) {
	cmd := NewSearchCmd()
	if cmd.Flags().Lookup("fuzzy") == nil {
		t.Error("Flag 'fuzzy' not registered")
	}
	if cmd.Flags().Lookup("limit") == nil {
		t.Error("Flag 'limit' not registered")
	}
}

func TestNewResetLearningCmd(t *testing.T) {
	cmd := NewResetLearningCmd()
	if cmd.Flags().Lookup("yes") == nil {
		t.Fatal("Flag 'yes' not registered")
	}

	// Refuses without confirmation, before touching any state.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := runE(cmd, nil); err == nil {
		t.Error("reset-learning ran without --yes")
	}
}

func TestAllCommandsHaveDescriptions(t *testing.T) {
	cmds := []*cobra.Command{
		NewServeCmd(),
		NewDispatchCmd(),
		NewListCmd(),
		NewSearchCmd(),
		NewStatsCmd(),
		NewTopCmd(),
		NewResetLearningCmd(),
	}
	for _, cmd := range cmds {
		if cmd.Short == "" {
			t.Errorf("command %q missing short description", cmd.Use)
		}
	}
}

func runE(cmd *cobra.Command, args []string) error {
	return cmd.RunE(cmd, args)
}
