package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/voice-hub/internal/dispatch"
)

// NewDispatchCmd creates the 'dispatch' command for one-shot dispatch.
func NewDispatchCmd() *cobra.Command {
	var jsonOutput bool
	var selection string

	cmd := &cobra.Command{
		Use:   "dispatch <text...>",
		Short: "Dispatch one spoken or typed command",
		Long:  `Run one utterance through the recognition engine and print the outcome.`,
		Example: `  voice-hub dispatch "save the level"
  voice-hub dispatch --selection "BeginPlay()" "explain"
  voice-hub dispatch --json "spawn a point light"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(strings.Join(args, " "), selection, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVar(&selection, "selection", "", "Simulate selected text in the workspace")

	return cmd
}

func runDispatch(text, selection string, jsonOutput bool) error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	if selection != "" {
		sess.engine.Context().SetSelectedText(selection)
	}

	result := sess.engine.Dispatch(context.Background(), text)

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printResult(result)
	return nil
}

func printResult(result *dispatch.Result) {
	switch result.Outcome {
	case dispatch.OutcomeSuccess:
		fmt.Printf("✓ %s\n", result.Command.CommandID)
		if result.Handler != nil && result.Handler.Message != "" {
			fmt.Printf("  %s\n", result.Handler.Message)
		}
		if len(result.Command.Params) > 0 {
			fmt.Printf("  params: %v\n", result.Command.Params)
		}

	case dispatch.OutcomeMatchFailed:
		fmt.Println("✗ Command not understood.")
		fmt.Println("  Try 'voice-hub list' to see what you can say.")

	case dispatch.OutcomeAmbiguous:
		fmt.Printf("? %d commands match equally well:\n", len(result.Candidates))
		for _, c := range result.Candidates {
			fmt.Printf("  • %s (%q)\n", c.CommandID, c.MatchedPattern)
		}
		fmt.Println("  Re-run with more specific phrasing.")

	case dispatch.OutcomeMissingParameter:
		fmt.Printf("✗ %s is missing parameters: %v\n", result.Command.CommandID, result.MissingSlots)

	case dispatch.OutcomeHandlerFailed:
		fmt.Printf("✗ %s failed: %s\n", result.Command.CommandID, result.Error)
	}
}
