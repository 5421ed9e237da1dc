// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/permission"
	"dbakit/cli/internal/sqlexec"
)

var (
	permDatabases     []string
	permIncludeSystem bool
	permScript        bool
)

// permissionsCmd exports who can do what on each target.
var permissionsCmd = &cobra.Command{
	Use:   "permissions [target ...]",
	Short: "Export role memberships and permission grants",
	Long: `The permissions command reads server role memberships and server level
grants, then walks every user database (or the ones named with --database)
for database roles and grants. Service and system principals are skipped
unless --include-system is set.

--script turns the export into GRANT, DENY and ALTER ROLE statements that
rebuild the same state elsewhere. Anything the scripter cannot express
becomes a comment so the script never silently drops a fact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "permissions", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			rows, err := permission.CollectServer(ctx, c, permIncludeSystem)
			if err != nil {
				return nil, 0, err
			}

			dbs := permDatabases
			if len(dbs) == 0 {
				dbs, err = c.Databases(ctx, false)
				if err != nil {
					return nil, 0, err
				}
			}
			for _, db := range dbs {
				dbc, err := openClient(ctx, rt, db)
				if err != nil {
					return rows, len(rows), fmt.Errorf("database %s: %w", db, err)
				}
				dbRows, err := permission.CollectDatabase(ctx, dbc, db, permIncludeSystem)
				dbc.Close()
				if err != nil {
					return rows, len(rows), err
				}
				rows = append(rows, dbRows...)
			}
			return rows, len(rows), nil
		})

		if err := renderAll(results, func(r fanResult) {
			rows, _ := r.Payload.([]permission.Row)
			targetHeader(r.Display)
			if len(rows) == 0 {
				pterm.Println("No permissions to report.")
				return
			}

			if permScript {
				printGrantScript(r.Display, rows)
				return
			}

			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				detail := row.Role
				if row.Kind == permission.KindPermission {
					detail = row.State + " " + row.Permission
					if row.Securable != "" {
						detail += " ON " + row.Securable
					}
				}
				table = append(table, []string{row.Scope, row.Database, row.Kind, row.Grantee, row.GranteeType, detail})
			}
			renderTable([]string{"Scope", "Database", "Kind", "Grantee", "Type", "Detail"}, table)
		}); err != nil {
			return err
		}
		return ferr
	},
}

// printGrantScript groups statements by scope so the output can be pasted
// into the right database context.
func printGrantScript(display string, rows []permission.Row) {
	var server, database []permission.Row
	for _, r := range rows {
		if r.Scope == permission.ScopeServer {
			server = append(server, r)
		} else {
			database = append(database, r)
		}
	}

	if len(server) > 0 {
		fmt.Printf("-- %s, server level\n", display)
		for _, stmt := range permission.GrantScript(server) {
			fmt.Println(stmt)
		}
	}

	current := ""
	var batch []permission.Row
	flush := func() {
		if len(batch) == 0 {
			return
		}
		fmt.Printf("\nUSE %s;\n", sqlexec.QuoteName(current))
		for _, stmt := range permission.GrantScript(batch) {
			fmt.Println(stmt)
		}
		batch = batch[:0]
	}
	for _, r := range database {
		if r.Database != current {
			flush()
			current = r.Database
		}
		batch = append(batch, r)
	}
	flush()
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.Flags().StringSliceVarP(&permDatabases, "database", "d", nil, "Databases to export; default is every online user database")
	permissionsCmd.Flags().BoolVar(&permIncludeSystem, "include-system", false, "Include sa, NT SERVICE and other system principals")
	permissionsCmd.Flags().BoolVar(&permScript, "script", false, "Print GRANT and role statements instead of a table")
}
