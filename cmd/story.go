package cmd

import (
	"github.com/spf13/cobra"
)

var flagStoryTitle string

var storyCmd = &cobra.Command{
	Use:   "story <pdf-url>",
	Short: "Rate an impact story PDF against three scoring criteria",
	Long: `Fetch the PDF at the given URL, extract its text, and score the
story on impact, issue clarity, and action steps. The composite score
and quality tier are computed from the three criterion scores.`,
	Example: `  saakshi story https://cdn.example.org/stories/back-to-school.pdf --title "Back to School"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.shutdown()

		result, err := rt.analyzer.AnalyzeStory(cmd.Context(), flagStoryTitle, args[0])
		if err != nil {
			return err
		}
		rt.record("story", args[0], result.Provenance, result)

		if flagJSON {
			return emitJSON(result)
		}
		renderStory(result, flagStoryTitle)
		return nil
	},
}

func init() {
	storyCmd.Flags().StringVar(&flagStoryTitle, "title", "", "story title included in the prompt")
	rootCmd.AddCommand(storyCmd)
}
