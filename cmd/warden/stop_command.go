package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"warden/internal/procaccess"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <pid>",
		Short: "Stop tracking a process and signal it to terminate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(func(session procaccess.Session) error {
				stopped, err := session.Access.Stop(cmd.Context(), pid)
				if err != nil {
					return err
				}
				if !stopped {
					return fmt.Errorf("no tracked process with pid %d", pid)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped process %d\n", pid)
				return nil
			})
		},
	}
}

func parsePID(raw string) (int, error) {
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", raw)
	}
	return pid, nil
}
