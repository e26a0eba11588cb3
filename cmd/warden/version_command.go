package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(out, "warden (build information unavailable)")
				return
			}
			version := info.Main.Version
			if version == "" || version == "(devel)" {
				version = "devel"
			}
			revision := ""
			modified := false
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					revision = setting.Value
				case "vcs.modified":
					modified = setting.Value == "true"
				}
			}
			fmt.Fprintf(out, "warden %s", version)
			if revision != "" {
				short := revision
				if len(short) > 12 {
					short = short[:12]
				}
				fmt.Fprintf(out, " (%s", short)
				if modified {
					fmt.Fprint(out, "-dirty")
				}
				fmt.Fprint(out, ")")
			}
			fmt.Fprintf(out, " %s\n", info.GoVersion)
		},
	}
}
