package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSearchCmd creates the 'search' command for finding commands.
func NewSearchCmd() *cobra.Command {
	var fuzzy bool
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the command catalog",
		Long: `Find commands by keyword.

The default search is exact substring matching over patterns,
descriptions, and examples. --fuzzy uses the full-text help index
instead, which tolerates partial words and ranks by relevance.`,
		Example: `  voice-hub search light
  voice-hub search --fuzzy "how do I spawn things"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(strings.Join(args, " "), fuzzy, limit)
		},
	}

	cmd.Flags().BoolVarP(&fuzzy, "fuzzy", "f", false, "Use full-text relevance search")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results")

	return cmd
}

func runSearch(query string, fuzzy bool, limit int) error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	if fuzzy {
		if sess.index == nil {
			return fmt.Errorf("help index is not available")
		}
		hits, err := sess.index.Search(query, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(hits) == 0 {
			fmt.Printf("No commands match %q.\n", query)
			return nil
		}
		for _, hit := range hits {
			fmt.Printf("  • %s [%s] — %s (%.2f)\n", hit.CommandID, hit.Category, hit.Description, hit.Score)
		}
		return nil
	}

	defs := sess.engine.Catalog().Search(query)
	if len(defs) == 0 {
		fmt.Printf("No commands match %q. Try --fuzzy for a looser search.\n", query)
		return nil
	}
	for _, def := range defs {
		fmt.Printf("  • %s [%s] — %s\n", def.ID, def.Category, def.Description)
		for _, p := range def.Patterns {
			fmt.Printf("      %q\n", p)
		}
	}
	return nil
}
