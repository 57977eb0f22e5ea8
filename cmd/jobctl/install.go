package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreunit/jobengine/internal/engine"
)

var installCmd = &cobra.Command{
	Use:   "install <unit-name> -- <command> [args...]",
	Short: "Install a job (start by default) against a process-backed unit",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := handleFrom(cmd)
		if err != nil {
			return err
		}

		dash := cmd.ArgsLenAtDash()
		var name string
		var command []string
		if dash > 0 {
			name = args[0]
			command = args[dash:]
		} else {
			name = args[0]
			command = args[1:]
		}

		u, ok := h.units[name]
		if !ok {
			u = newExecUnit(h.manager, name, command)
			h.units[name] = u
		}

		typ, _ := engine.ParseJobType(cmd.Flag("type").Value.String())

		override, _ := cmd.Flags().GetBool("override")
		irreversible, _ := cmd.Flags().GetBool("irreversible")

		job, err := h.manager.Install(u, typ, engine.JobFlags{
			Override:     override,
			Irreversible: irreversible,
		})
		if err != nil {
			return fmt.Errorf("install: %w", err)
		}
		u.setJobID(job.ID())

		fmt.Fprintf(cmd.OutOrStdout(), "installed job %d (%s %s) on %s\n", job.ID(), job.Type(), job.State(), name)
		return nil
	},
}

func init() {
	installCmd.Flags().String("type", "start", "job type: start, stop, reload, restart, try-restart, reload-or-start, try-reload, verify-active")
	installCmd.Flags().Bool("override", false, "prevail over non-override peers when merging")
	installCmd.Flags().Bool("irreversible", false, "refuse cancellation by a later conflicting job")
}
