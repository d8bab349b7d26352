package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var thematicCmd = &cobra.Command{
	Use:   "thematic <statements>",
	Short: "Classify challenge statements into education-barrier themes",
	Long: `Classify each challenge statement into one of the fixed themes.
Statements are given as a single pipe-delimited argument; empty segments
are dropped. Statements and the model's reasoning are scanned locally
for personally identifying information and flagged in the output.`,
	Example: `  saakshi thematic "Family cannot afford books|School is 8km away with no bus"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statements := splitStatements(args[0])
		if len(statements) == 0 {
			return fmt.Errorf("no statements given")
		}

		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.shutdown()

		result, err := rt.analyzer.AnalyzeThematic(cmd.Context(), statements)
		if err != nil {
			return err
		}
		rt.record("thematic", fmt.Sprintf("%d statements", len(statements)), result.Provenance, result)

		if flagJSON {
			return emitJSON(result)
		}
		renderThematic(result)
		return nil
	},
}

// splitStatements splits a pipe-delimited argument, trimming whitespace
// and dropping empty segments.
func splitStatements(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, "|") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(thematicCmd)
}
