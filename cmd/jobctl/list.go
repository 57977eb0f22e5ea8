package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := handleFrom(cmd)
		if err != nil {
			return err
		}

		jobs := h.manager.List()
		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no jobs installed")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"ID", "Unit", "Type", "State", "Result"})

		for _, j := range jobs {
			table.Append([]string{
				fmt.Sprintf("%d", j.ID()),
				j.Unit().Name(),
				j.Type().String(),
				j.State().String(),
				j.Result().String(),
			})
		}

		table.Render()
		return nil
	},
}
