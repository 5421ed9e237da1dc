// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/servername"
	"dbakit/cli/internal/sqlexec"
)

var (
	renameScript bool
	renameYes    bool
)

var instanceNameCmd = &cobra.Command{
	Use:   "instance-name",
	Short: "Test and repair the recorded server name",
	Long: `After a host rename, @@SERVERNAME keeps returning the old machine name
while SERVERPROPERTY('ServerName') follows the host. The test subcommand
compares the two; repair rewrites the recorded name with sp_dropserver and
sp_addserver.`,
}

var instanceNameTestCmd = &cobra.Command{
	Use:   "test [target ...]",
	Short: "Check whether the recorded server name is stale",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "instance-name test", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			rep, err := servername.Test(ctx, c)
			if err != nil {
				return nil, 0, err
			}
			return rep, 1, nil
		})

		if err := renderAll(results, func(r fanResult) {
			rep := r.Payload.(*servername.Report)
			targetHeader(r.Display)
			renderTable([]string{"Check", "Value"}, [][]string{
				{"Recorded name (@@SERVERNAME)", rep.ConfiguredName},
				{"Actual name (SERVERPROPERTY)", rep.PropertyName},
				{"Rename needed", yesNo(rep.Renamed)},
				{"Updatable", yesNo(rep.Updatable)},
			})
			for _, b := range rep.Blockers {
				pterm.Warning.Printfln("⚠️  %s", b)
			}
			if !rep.Renamed {
				pterm.Success.Println("✅ Names match, nothing to do")
			} else if rep.Updatable {
				pterm.Printfln("Run: dbakit instance-name repair %s", r.Display)
			}
		}); err != nil {
			return err
		}
		return ferr
	},
}

// renameOutcome is the per-target result of instance-name repair.
type renameOutcome struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Statements []string `json:"statements"`
	Applied    bool     `json:"applied"`
}

var instanceNameRepairCmd = &cobra.Command{
	Use:   "repair [target ...]",
	Short: "Rewrite a stale recorded server name",
	Long: `Drops the stale server entry and re-adds the instance under its actual
name. The engine only reads the entry at startup, so the SQL Server service
must be restarted before @@SERVERNAME reflects the change. Replicated or
mirrored databases block the rename and are reported instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}
		if !renameScript && !renameYes {
			if !confirm(fmt.Sprintf("Rewrite the recorded server name on %d target(s)?", len(targets))) {
				pterm.Println("Aborted.")
				return nil
			}
		}

		results, ferr := fanOut(cmd.Context(), "instance-name repair", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			rep, err := servername.Test(ctx, c)
			if err != nil {
				return nil, 0, err
			}
			out := &renameOutcome{
				From:       rep.ConfiguredName,
				To:         rep.PropertyName,
				Statements: servername.RepairStatements(rep.ConfiguredName, rep.PropertyName),
			}
			if renameScript {
				return out, 0, nil
			}
			if err := servername.Repair(ctx, c, rep); err != nil {
				return nil, 0, err
			}
			out.Applied = true
			return out, 1, nil
		})

		if err := renderAll(results, func(r fanResult) {
			out := r.Payload.(*renameOutcome)
			if renameScript {
				fmt.Printf("-- %s\n", r.Display)
				for _, stmt := range out.Statements {
					fmt.Println(stmt)
				}
				return
			}
			pterm.Success.Printfln("✅ %s: recorded name set to %s (was %s)", r.Display, out.To, out.From)
			pterm.Warning.Println("⚠️  Restart the SQL Server service to apply the new name.")
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(instanceNameCmd)
	instanceNameCmd.AddCommand(instanceNameTestCmd)
	instanceNameCmd.AddCommand(instanceNameRepairCmd)

	instanceNameRepairCmd.Flags().BoolVar(&renameScript, "script", false, "Print the repair statements instead of running them")
	instanceNameRepairCmd.Flags().BoolVarP(&renameYes, "yes", "y", false, "Skip the confirmation prompt")
}
