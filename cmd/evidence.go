package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagQuestions []string

var evidenceCmd = &cobra.Command{
	Use:   "evidence <image-url>",
	Short: "Answer yes/no questions about a classroom evidence image",
	Long: `Fetch the evidence image at the given URL and answer each question
with yes or no, plus a one-line reasoning. Between 1 and 7 questions are
accepted; a relevance tag is derived from the share of yes answers.`,
	Example: `  saakshi evidence https://cdn.example.org/evidence/42.jpg \
    -q "Are students working in groups?" \
    -q "Is student work displayed on the walls?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(flagQuestions) == 0 {
			return fmt.Errorf("at least one question is required (use -q)")
		}

		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.shutdown()

		result, err := rt.analyzer.AnalyzeEvidence(cmd.Context(), args[0], flagQuestions)
		if err != nil {
			return err
		}
		rt.record("evidence", args[0], result.Provenance, result)

		if flagJSON {
			return emitJSON(result)
		}
		renderEvidence(result, flagQuestions)
		return nil
	},
}

func init() {
	evidenceCmd.Flags().StringArrayVarP(&flagQuestions, "question", "q", nil, "question to answer (repeatable, max 7)")
	rootCmd.AddCommand(evidenceCmd)
}
