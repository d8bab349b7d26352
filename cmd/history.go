package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prerak-labs/saakshi/internal/journal"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent analysis runs from the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.OpenDefault()
		if err != nil {
			return err
		}
		entries, err := j.Tail(flagHistoryLimit)
		if err != nil {
			return err
		}

		if flagJSON {
			return emitJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println(styleMuted.Render("no analysis runs recorded yet"))
			return nil
		}
		fmt.Println(styleTitle.Render("Analysis History"))
		fmt.Println()
		for _, e := range entries {
			fmt.Printf("  %s  %-9s %s\n",
				styleMuted.Render(e.TS.Local().Format("2006-01-02 15:04:05")),
				e.Kind,
				e.Input,
			)
			fmt.Printf("    %s\n", styleMuted.Render(fmt.Sprintf("%s/%s in %dms",
				e.Provenance.Provider, e.Provenance.Model, e.Provenance.DurationMs)))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "maximum entries to show")
	rootCmd.AddCommand(historyCmd)
}
