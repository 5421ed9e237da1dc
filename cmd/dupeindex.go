// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/dupeindex"
	"dbakit/cli/internal/sqlexec"
)

var (
	dupeDatabases   []string
	dupeOverlapping bool
	dupeScript      bool
)

// dupeFindings is the per-database slice of one target's dupe-index payload.
type dupeFindings struct {
	Database string              `json:"database"`
	Findings []dupeindex.Finding `json:"findings"`
}

// dupeIndexCmd finds redundant indexes across each target's databases.
var dupeIndexCmd = &cobra.Command{
	Use:   "dupe-index [target ...]",
	Short: "Find duplicate and overlapping indexes",
	Long: `The dupe-index command finds exact duplicates (same key order, same
includes, same filter) in every user database, or the ones named with
--database. With --include-overlapping it also reports indexes whose key is
a strict prefix of a wider index that covers their includes.

Indexes backing primary keys or unique constraints are never suggested for
removal. --script prints ready-to-review DROP INDEX statements instead of a
table; nothing is ever dropped by this command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "dupe-index", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			dbs := dupeDatabases
			if len(dbs) == 0 {
				var err error
				dbs, err = c.Databases(ctx, false)
				if err != nil {
					return nil, 0, err
				}
			}

			var payload []dupeFindings
			total := 0
			for _, db := range dbs {
				dbc, err := openClient(ctx, rt, db)
				if err != nil {
					return payload, total, fmt.Errorf("database %s: %w", db, err)
				}
				indexes, err := dupeindex.Collect(ctx, dbc, db)
				dbc.Close()
				if err != nil {
					return payload, total, err
				}

				findings := dupeindex.FindExact(indexes)
				if dupeOverlapping {
					findings = append(findings, dupeindex.FindOverlapping(indexes)...)
				}
				if len(findings) == 0 {
					continue
				}
				payload = append(payload, dupeFindings{Database: db, Findings: findings})
				total += len(findings)
			}
			return payload, total, nil
		})

		if err := renderAll(results, func(r fanResult) {
			payload, _ := r.Payload.([]dupeFindings)
			targetHeader(r.Display)
			if len(payload) == 0 {
				pterm.Success.Println("✅ No duplicate indexes found")
				return
			}

			if dupeScript {
				for _, p := range payload {
					fmt.Printf("-- %s, database %s\n", r.Display, p.Database)
					for _, stmt := range dupeindex.DropStatements(p.Findings) {
						fmt.Println(stmt)
					}
				}
				return
			}

			for _, p := range payload {
				pterm.Printfln("Database %s", p.Database)
				rows := make([][]string, 0, len(p.Findings))
				for _, f := range p.Findings {
					drops := make([]string, 0, len(f.Drop))
					for _, ix := range f.Drop {
						drops = append(drops, ix.Name)
					}
					rows = append(rows, []string{
						f.Kind,
						f.Keep.Schema + "." + f.Keep.Table,
						f.Keep.Name,
						strings.Join(drops, ", "),
						formatKB(f.SavingsKB()),
					})
				}
				renderTable([]string{"Kind", "Table", "Keep", "Drop", "Savings"}, rows)
			}
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(dupeIndexCmd)
	dupeIndexCmd.Flags().StringSliceVarP(&dupeDatabases, "database", "d", nil, "Databases to scan; default is every online user database")
	dupeIndexCmd.Flags().BoolVar(&dupeOverlapping, "include-overlapping", false, "Also report strict-prefix overlaps, not just exact duplicates")
	dupeIndexCmd.Flags().BoolVar(&dupeScript, "script", false, "Print DROP INDEX statements instead of a table")
}
