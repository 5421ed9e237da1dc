// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/logging"
	"dbakit/cli/internal/sqlexec"
	"dbakit/cli/internal/sqlwatch"
)

var (
	sqlwatchDatabase string
	sqlwatchDryRun   bool
	sqlwatchYes      bool
)

var sqlwatchCmd = &cobra.Command{
	Use:   "sqlwatch",
	Short: "Manage the SqlWatch monitoring add-on",
}

// sqlwatchPayload is the per-target result of sqlwatch uninstall.
type sqlwatchPayload struct {
	Footprint *sqlwatch.Footprint  `json:"footprint"`
	Plan      []sqlwatch.Statement `json:"plan,omitempty"`
	Applied   int                  `json:"applied,omitempty"`
	Failed    []string             `json:"failed,omitempty"`
}

var sqlwatchUninstallCmd = &cobra.Command{
	Use:   "uninstall [target ...]",
	Short: "Remove SqlWatch objects from an instance",
	Long: `Finds everything SqlWatch left behind (Agent jobs, extended event
sessions, and the sqlwatch tables, views, procedures and functions in
--database) and drops it in dependency order: collectors first, then
constraints, then objects. A failed drop is reported and the teardown
continues. The repository database itself is not dropped.

--dry-run prints the plan without touching anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}
		if !sqlwatchDryRun && !sqlwatchYes {
			if !confirm(fmt.Sprintf("Remove SqlWatch from %d target(s)?", len(targets))) {
				pterm.Println("Aborted.")
				return nil
			}
		}

		results, ferr := fanOut(cmd.Context(), "sqlwatch uninstall", targets, sqlwatchDatabase, func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			fp, err := sqlwatch.Discover(ctx, c, sqlwatchDatabase)
			if err != nil {
				return nil, 0, err
			}
			p := &sqlwatchPayload{Footprint: fp}
			if fp.Empty() {
				return p, 0, nil
			}

			plan := sqlwatch.DropPlan(fp)
			if sqlwatchDryRun {
				p.Plan = plan
				return p, 0, nil
			}

			for _, res := range sqlwatch.Apply(ctx, c, plan) {
				if res.Err != nil {
					p.Failed = append(p.Failed, fmt.Sprintf("%s %s: %s",
						res.Statement.Kind, res.Statement.Name, logging.Mask(res.Err.Error())))
					continue
				}
				p.Applied++
			}
			// Individual drops warn and continue; only a teardown that removed
			// nothing at all fails the target.
			if p.Applied == 0 && len(p.Failed) > 0 {
				return p, 0, errors.New(errors.QueryFailed,
					fmt.Sprintf("all %d drops failed on %s", len(plan), c.DisplayName()))
			}
			return p, p.Applied, nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*sqlwatchPayload)
			targetHeader(r.Display)
			if p.Footprint.Empty() {
				pterm.Println("No SqlWatch objects found.")
				return
			}

			if sqlwatchDryRun {
				pterm.Printfln("Would drop %d objects:", len(p.Plan))
				for _, stmt := range p.Plan {
					fmt.Println(stmt.SQL)
				}
				return
			}

			pterm.Success.Printfln("✅ Dropped %d of %d objects", p.Applied, p.Footprint.Count())
			for _, f := range p.Failed {
				pterm.Error.Printfln("❌ %s", f)
			}
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(sqlwatchCmd)
	sqlwatchCmd.AddCommand(sqlwatchUninstallCmd)

	sqlwatchUninstallCmd.Flags().StringVarP(&sqlwatchDatabase, "database", "d", "SQLWATCH", "Database holding the SqlWatch repository")
	sqlwatchUninstallCmd.Flags().BoolVar(&sqlwatchDryRun, "dry-run", false, "Print the drop plan without executing it")
	sqlwatchUninstallCmd.Flags().BoolVarP(&sqlwatchYes, "yes", "y", false, "Skip the confirmation prompt")
}
