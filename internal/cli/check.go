package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pupilpath/quizcore/internal/content"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <uri>",
		Short: "Validate a quiz JSON file or URL and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := content.NewLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("quiz %s (content %s): %d questions, mode=%s, maxScore=%d, passing=%s\n",
				def.QuizID, def.ContentID, len(def.Questions),
				def.Settings.Mode, def.Settings.MaxScore, def.Settings.PassingScore)
			for _, q := range def.Questions {
				fmt.Printf("  %-12s %s (%d choices, %d pts)\n", q.Type, q.ID, len(q.Choices), q.Points)
			}
			return nil
		},
	}
}
