package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetLearningCmd creates the 'reset-learning' command.
func NewResetLearningCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-learning",
		Short: "Erase all learned usage history and preferences",
		Long: `Wipe usage counts, phrasing variations, and disambiguation
preferences, in memory and on disk. Registered commands are untouched.`,
		Example: `  voice-hub reset-learning --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to erase learning history without --yes")
			}
			return runResetLearning()
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")

	return cmd
}

func runResetLearning() error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	sess.engine.Learning().Clear()
	fmt.Println("Learning history erased.")
	return nil
}
