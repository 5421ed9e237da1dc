// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/sqlexec"
	"dbakit/cli/internal/startup"
)

// startupCmd shows how each engine was told to start.
var startupCmd = &cobra.Command{
	Use:   "startup [target ...]",
	Short: "Show the engine's startup parameters",
	Long: `The startup command reads the SQLArg values from sys.dm_server_registry and
interprets the common flags: master file locations, the error log, trace
flags, single user mode and the rest. Flags it does not recognize are
reported verbatim.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "startup", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			params, err := startup.Collect(ctx, c)
			if err != nil {
				return nil, 0, err
			}
			return params, len(params.Raw), nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*startup.Parameters)
			targetHeader(r.Display)

			singleUser := yesNo(p.SingleUser)
			if p.SingleUser && p.SingleUserDetail != "" {
				singleUser += " (" + p.SingleUserDetail + ")"
			}
			rows := [][]string{
				{"Master data file", p.MasterData},
				{"Master log file", p.MasterLog},
				{"Error log", p.ErrorLog},
				{"Trace flags", joinInts(p.TraceFlags)},
				{"Single user", singleUser},
				{"Minimal start", yesNo(p.MinimalStart)},
				{"No event logging", yesNo(p.NoEventLogging)},
				{"Start as named instance", yesNo(p.StartAsNamed)},
			}
			if p.DisableMonitor {
				rows = append(rows, []string{"Monitoring disabled (-x)", "yes"})
			}
			if p.CommandPrompt {
				rows = append(rows, []string{"Started from command prompt", "yes"})
			}
			if p.IncreasedExtents {
				rows = append(rows, []string{"Increased extents (-E)", "yes"})
			}
			if p.MemoryToReserveMB > 0 {
				rows = append(rows, []string{"Memory to reserve", strconv.Itoa(p.MemoryToReserveMB) + " MB"})
			}
			renderTable([]string{"Setting", "Value"}, rows)

			if len(p.Unrecognized) > 0 {
				pterm.Warning.Printfln("⚠️  Unrecognized parameters: %s", strings.Join(p.Unrecognized, " "))
			}
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(startupCmd)
}
