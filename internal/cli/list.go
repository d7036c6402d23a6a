package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/voice-hub/internal/command"
)

// NewListCmd creates the 'list' command for listing registered commands.
func NewListCmd() *cobra.Command {
	var jsonOutput bool
	var category string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all registered voice commands",
		Long:    `Display every registered command with its spoken patterns, grouped by category.`,
		Example: `  voice-hub list
  voice-hub list --category lighting
  voice-hub list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(jsonOutput, category)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show one category")

	return cmd
}

func runList(jsonOutput bool, category string) error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	catalog := sess.engine.Catalog()

	var defs []*command.Definition
	if category != "" {
		defs = catalog.ByCategory(category)
		if len(defs) == 0 {
			fmt.Printf("No commands in category %q.\n", category)
			return nil
		}
	} else {
		defs = catalog.All()
	}

	if jsonOutput {
		data, err := json.MarshalIndent(defs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode commands: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if category != "" {
		fmt.Printf("%s:\n", category)
		for _, def := range defs {
			fmt.Printf("  • %s — %s\n", def.ID, def.Description)
			for _, p := range def.Patterns {
				fmt.Printf("      %q\n", p)
			}
		}
		return nil
	}

	stats := catalog.Stats()
	fmt.Printf("Registered commands (%d):\n\n", stats.Total)
	fmt.Print(catalog.HelpText())
	return nil
}
