package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"warden/internal/procaccess"
	"warden/internal/registry"
	"warden/internal/scope"
)

var statusTitle = cases.Title(language.English)

func newPsCommand(ctx *commandContext) *cobra.Command {
	var scopeFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List tracked processes",
		Long: `List tracked processes.

The scope controls which registry partitions are shown: "current" lists only
processes started from this directory, "subtree" adds every directory beneath
it, and "all" lists every partition.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, ok := scope.ParseScope(scopeFlag)
			if !ok {
				return fmt.Errorf("invalid scope %q (valid: %v)", scopeFlag, scope.AllScopes())
			}
			base, err := scope.BaseDir()
			if err != nil {
				return err
			}

			return ctx.withAccess(func(session procaccess.Session) error {
				entries, err := session.Access.List(cmd.Context(), base, sc)
				if err != nil {
					return err
				}
				// Registry order is unspecified across partitions; sort for
				// display only.
				sort.Slice(entries, func(i, j int) bool {
					if entries[i].Workdir != entries[j].Workdir {
						return entries[i].Workdir < entries[j].Workdir
					}
					return entries[i].Record.StartTime < entries[j].Record.StartTime
				})

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No tracked processes")
					return nil
				}
				fmt.Fprintln(out, renderTable(psHeaders(), psRows(entries), psAlignments()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", string(scope.ScopeSubtree), "Partition scope: current, subtree, or all")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func psHeaders() []string {
	return []string{"PID", "Status", "Policy", "Started", "Directory", "Command"}
}

func psAlignments() []columnAlignment {
	return []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
}

func psRows(entries []registry.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(entry.Record.PID),
			statusTitle.String(string(entry.Record.Status)),
			policyLabel(entry.Record.AutoShutdown),
			entry.Record.StartedAt().Local().Format(time.DateTime),
			entry.Workdir,
			entry.Record.Command,
		})
	}
	return rows
}

func policyLabel(autoShutdown bool) string {
	if autoShutdown {
		return "ephemeral"
	}
	return "persistent"
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
