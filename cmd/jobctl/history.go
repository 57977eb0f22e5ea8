package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/coreunit/jobengine/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished jobs recorded in the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := handleFrom(cmd)
		if err != nil {
			return err
		}

		since, _ := cmd.Flags().GetDuration("since")

		recs, err := h.history.List(time.Now().Add(-since))
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no history recorded")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"ID", "Unit", "Type", "Result", "Began", "Ended", "Duration"})

		for _, r := range recs {
			table.Append([]string{
				fmt.Sprintf("%d", r.ID),
				r.Unit,
				r.Type.String(),
				r.Result.String(),
				r.Begin.Format(time.TimeOnly),
				r.End.Format(time.TimeOnly),
				r.End.Sub(r.Begin).String(),
			})
		}

		table.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().Duration("since", config.HISTORY_RETENTION.Default, "only show records newer than this")
}
