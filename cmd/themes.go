package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prerak-labs/saakshi/internal/analysis"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the thematic classification taxonomy",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagJSON {
			return emitJSON(analysis.Themes())
		}
		fmt.Println(styleTitle.Render("Classification Themes"))
		fmt.Println()
		for _, t := range analysis.Themes() {
			fmt.Printf("  %d. %s\n", t.ID, t.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}
