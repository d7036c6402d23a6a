package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the 'stats' command.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and usage statistics",
		Example: `  voice-hub stats
  voice-hub stats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStats(jsonOutput bool) error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	stats := sess.engine.Catalog().Stats()
	top := sess.engine.Learning().TopCommands(5)

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"totalCommands": stats.Total,
			"byCategory":    stats.ByCategory,
			"topCommands":   top,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode stats: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Commands: %d\n\n", stats.Total)

	cats := make([]string, 0, len(stats.ByCategory))
	for cat := range stats.ByCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		fmt.Printf("  %-12s %d\n", cat, stats.ByCategory[cat])
	}

	if len(top) > 0 {
		fmt.Println("\nMost used:")
		for _, u := range top {
			fmt.Printf("  %-28s %d uses, last %s\n", u.CommandID, u.Count, u.LastUsed.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
