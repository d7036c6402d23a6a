package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTopCmd creates the 'top' command for usage history.
func NewTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the most used commands",
		Long:  `List commands by total confirmed uses, with the preferred phrasing for each.`,
		Example: `  voice-hub top
  voice-hub top --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of commands to show")

	return cmd
}

func runTop(limit int) error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	learn := sess.engine.Learning()
	top := learn.TopCommands(limit)
	if len(top) == 0 {
		fmt.Println("No usage recorded yet.")
		return nil
	}

	for i, u := range top {
		fmt.Printf("%2d. %-28s %d uses\n", i+1, u.CommandID, u.Count)
		if phrase, ok := learn.PreferredVariation(u.CommandID); ok {
			fmt.Printf("    usually said as %q\n", phrase)
		}
	}
	return nil
}
