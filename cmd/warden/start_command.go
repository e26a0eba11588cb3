package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"warden/internal/procaccess"
	"warden/internal/scope"
	"warden/internal/supervisor"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var detach bool
	var dirFlag string
	var envFlags []string

	cmd := &cobra.Command{
		Use:   "start [flags] -- command [args...]",
		Short: "Launch a shell command as a supervised process",
		Long: `Launch a shell command as a supervised process.

By default the process is attached to the daemon: its output is piped into a
per-process log file and it is terminated when the daemon shuts down. With
--detach the process runs in its own session, writes its log through an OS
level redirect, and survives daemon restarts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.TrimSpace(strings.Join(args, " "))
			if command == "" {
				return fmt.Errorf("command must not be empty")
			}

			env, err := parseEnvFlags(envFlags)
			if err != nil {
				return err
			}

			// Resolve the partition on the caller's side: the daemon's own
			// working directory is irrelevant to where the record files.
			dir, err := scope.ResolveDir(dirFlag)
			if err != nil {
				return err
			}

			return ctx.withAccess(func(session procaccess.Session) error {
				pid, err := session.Access.Start(cmd.Context(), supervisor.StartRequest{
					Command:      command,
					Dir:          dir,
					Env:          env,
					AutoShutdown: !detach,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started process %d\n", pid)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&detach, "detach", false, "Run detached so the process survives daemon shutdown")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Working directory for the process (defaults to the current directory)")
	cmd.Flags().StringArrayVar(&envFlags, "env", nil, "Extra environment variables as KEY=VALUE (repeatable)")
	return cmd
}

func parseEnvFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --env value %q: expected KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}
