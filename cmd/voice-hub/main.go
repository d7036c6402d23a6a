/*
Package main is the entry point for the voice-hub CLI.

voice-hub turns spoken or typed phrases into editor actions: a command
catalog with slot-extracting pattern matching, workspace-aware parameter
resolution, and usage learning that adapts ranking to how each user
actually phrases things.

Usage:
  voice-hub [command]

Available Commands:
  serve          Run the voice command server (stdio transport)
  dispatch       Dispatch one spoken or typed command
  list           List all registered voice commands
  search         Search the command catalog
  stats          Show catalog and usage statistics
  top            Show the most used commands
  reset-learning Erase all learned usage history and preferences
  help           Help about any command

Examples:
  # Run as an editor backend
  voice-hub serve

  # Try a phrase from the shell
  voice-hub dispatch "set time of day to noon"
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khanglvm/voice-hub/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voice-hub",
		Short: "Voice command recognition and dispatch for editor hosts",
		Long: `voice-hub is a voice/text command engine for editor hosts.

It matches utterances against registered spoken patterns, extracts
parameters, fills gaps from workspace context, and learns from usage:
frequently used commands rank higher, ambiguous phrasings remember the
user's choice, and every confirmed invocation persists across sessions.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewDispatchCmd())
	rootCmd.AddCommand(cli.NewListCmd())
	rootCmd.AddCommand(cli.NewSearchCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())
	rootCmd.AddCommand(cli.NewTopCmd())
	rootCmd.AddCommand(cli.NewResetLearningCmd())
	rootCmd.AddCommand(cli.NewVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
