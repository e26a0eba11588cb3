// Command wardend is the long-lived warden front-end. It owns the health
// monitor loop, hosts the JSON-RPC socket, reconciles the registry at boot,
// and cleans up its attached processes at shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"warden/internal/config"
	"warden/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	cmd := &cobra.Command{
		Use:           "wardend",
		Short:         "Warden process supervision daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: logLevelFlag,
			})
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
