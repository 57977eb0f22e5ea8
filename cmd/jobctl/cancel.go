package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel an installed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := handleFrom(cmd)
		if err != nil {
			return err
		}

		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("cancel: invalid job id %q: %w", args[0], err)
		}

		recursive, _ := cmd.Flags().GetBool("recursive")
		if err := h.manager.Cancel(uint32(id), recursive); err != nil {
			return fmt.Errorf("cancel: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "canceled job %d\n", id)
		return nil
	},
}

func init() {
	cancelCmd.Flags().Bool("recursive", true, "also fail dependent jobs with result dependency")
}
