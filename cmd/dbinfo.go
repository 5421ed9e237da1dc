// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/sqlexec"
)

// dbinfoPayload is the per-target result of dbinfo.
type dbinfoPayload struct {
	Info      *sqlexec.ServerInfo `json:"info"`
	Databases []string            `json:"databases"`
}

// dbinfoCmd shows what each target actually is: version, edition, paths
// and the user databases on it.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo [target ...]",
	Short: "Show instance facts: version, edition, paths and databases",
	Long: `The dbinfo command connects to each target and reports what the instance
says about itself: server and machine name, edition, version, collation,
default file paths and the online user databases.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "dbinfo", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			info, err := c.ServerInfo(ctx)
			if err != nil {
				return nil, 0, err
			}
			dbs, err := c.Databases(ctx, false)
			if err != nil {
				return nil, 0, err
			}
			return &dbinfoPayload{Info: info, Databases: dbs}, len(dbs), nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*dbinfoPayload)
			clustered := ""
			if p.Info.Clustered {
				clustered = "\nClustered   yes"
			}
			hadr := ""
			if p.Info.HadrEnabled {
				hadr = "\nHADR        enabled"
			}
			body := fmt.Sprintf(`Server      %s
Machine     %s
Edition     %s
Version     %s (%s)
Collation   %s
Data path   %s
Log path    %s%s%s

User databases (%d): %s`,
				p.Info.ServerName,
				p.Info.MachineName,
				p.Info.Edition,
				p.Info.ProductVersion, p.Info.ProductLevel,
				p.Info.Collation,
				p.Info.DefaultDataPath,
				p.Info.DefaultLogPath,
				clustered, hadr,
				len(p.Databases), strings.Join(p.Databases, ", "))

			pterm.DefaultBox.
				WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(r.Display)).
				WithTopPadding(1).
				WithBottomPadding(1).
				WithLeftPadding(1).
				WithRightPadding(1).
				Println(body)
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
