package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warden/internal/procaccess"
	"warden/internal/supervisor"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs <pid>",
		Short: "Print the trailing log lines of a tracked process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(func(session procaccess.Session) error {
				text, err := session.Access.Logs(cmd.Context(), pid, lines)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&lines, "lines", supervisor.DefaultLogLines, "Maximum number of log lines to print")
	return cmd
}
