package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"warden/internal/daemonctl"
	"warden/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Control the wardend daemon",
	}
	daemonCmd.AddCommand(newDaemonStartCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	return daemonCmd
}

func newDaemonStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the wardend daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}
			exe, err := daemonctl.ResolveExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(socket, exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath(),
			}, 10*time.Second)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the wardend daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}

			result, err := daemonctl.StopAndTerminate(socket, cfg, 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit gracefully; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return fmt.Errorf("daemon status: %w", err)
			}
			renderDaemonStatus(stdout, status)
			return nil
		},
	}
}

func renderDaemonStatus(out io.Writer, status *ipc.StatusResponse) {
	state := "stopped"
	if status.Running {
		state = "running"
	}
	fmt.Fprintf(out, "Daemon:     %s (pid %d)\n", state, status.PID)
	fmt.Fprintf(out, "Registry:   %s\n", status.RegistryPath)
	fmt.Fprintf(out, "Socket:     %s\n", status.SocketPath)
	fmt.Fprintf(out, "Processes:  %d tracked records in %d partitions (%d running, %d attached)\n",
		status.Processes, status.Partitions, status.RunningProcs, status.Tracked)

	if len(status.Checks) > 0 {
		fmt.Fprintln(out, "Checks:")
		for _, check := range status.Checks {
			verdict := "ok"
			if !check.Passed {
				verdict = "warn"
			}
			fmt.Fprintf(out, "  %-24s [%s] %s\n", check.Name+":", verdict, check.Detail)
		}
	}
	if len(status.Dependencies) > 0 {
		fmt.Fprintln(out, "Dependencies:")
		for _, dep := range status.Dependencies {
			verdict := "ok"
			if !dep.Available {
				verdict = "missing"
				if dep.Optional {
					verdict = "optional"
				}
			}
			fmt.Fprintf(out, "  %-24s [%s] %s\n", dep.Name+":", verdict, dep.Detail)
		}
	}
}
