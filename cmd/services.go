// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"dbakit/cli/internal/sqlexec"
	"dbakit/cli/internal/sqlservice"
)

// servicesCmd reports the SQL Server related services on each target.
var servicesCmd = &cobra.Command{
	Use:   "services [target ...]",
	Short: "Report SQL Server services visible to the engine",
	Long: `The services command reads sys.dm_server_services on each target: state,
startup type, service account and instant file initialization. Host
services the engine cannot see (Browser, SSRS) are not listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "services", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			services, err := sqlservice.Collect(ctx, c)
			if err != nil {
				return nil, 0, err
			}
			return services, len(services), nil
		})

		if err := renderAll(results, func(r fanResult) {
			services := r.Payload.([]sqlservice.Service)
			targetHeader(r.Display)

			rows := make([][]string, 0, len(services))
			for _, s := range services {
				status := s.Status
				if sqlservice.Running(s.Status) {
					status = "✅ " + status
				} else {
					status = "⚠️  " + status
				}
				pid := ""
				if s.ProcessID > 0 {
					pid = strconv.Itoa(s.ProcessID)
				}
				rows = append(rows, []string{s.Name, s.Type, status, s.StartupType, s.ServiceAccount, pid, s.InstantFileInit})
			}
			renderTable([]string{"Service", "Type", "Status", "Startup", "Account", "PID", "IFI"}, rows)
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
