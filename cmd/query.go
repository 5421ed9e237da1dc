// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

var (
	querySQL      string
	queryFile     string
	queryDatabase string
	queryExec     bool
)

// queryPayload is the per-target result of query.
type queryPayload struct {
	Resultset    *sqlexec.Resultset `json:"resultset,omitempty"`
	RowsAffected *int64             `json:"rows_affected,omitempty"`
}

// queryCmd runs one statement everywhere and lines the results up.
var queryCmd = &cobra.Command{
	Use:   "query [target ...]",
	Short: "Run an ad hoc statement on each target",
	Long: `The query command runs one statement, from --sql or --file, against every
target and renders the resultset per target. Statements that return no rows
(DDL, UPDATE and friends) need --exec, which reports affected rows instead.

The same group fan-out applies, so
dbakit query --group prod --sql "SELECT @@VERSION" is a quick inventory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stmt := querySQL
		if queryFile != "" {
			if stmt != "" {
				return errors.New(errors.ValidationFailed, "use either --sql or --file, not both")
			}
			data, err := os.ReadFile(queryFile)
			if err != nil {
				return err
			}
			stmt = string(data)
		}
		if strings.TrimSpace(stmt) == "" {
			return errors.New(errors.ValidationFailed, "nothing to run; pass --sql or --file")
		}

		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "query", targets, queryDatabase, func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			if queryExec {
				n, err := c.Exec(ctx, stmt)
				if err != nil {
					return nil, 0, err
				}
				return &queryPayload{RowsAffected: &n}, int(n), nil
			}
			rs, err := c.Query(ctx, stmt)
			if err != nil {
				return nil, 0, err
			}
			return &queryPayload{Resultset: rs}, len(rs.Rows), nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*queryPayload)
			targetHeader(r.Display)
			if p.RowsAffected != nil {
				pterm.Success.Printfln("✅ %d row(s) affected", *p.RowsAffected)
				return
			}
			if p.Resultset.Empty() {
				pterm.Println("(no rows)")
				return
			}
			rows := make([][]string, 0, len(p.Resultset.Rows))
			for _, row := range p.Resultset.Rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = sqlexec.FormatValue(v)
				}
				rows = append(rows, cells)
			}
			renderTable(p.Resultset.Columns, rows)
			pterm.Printfln("%d row(s)", len(p.Resultset.Rows))
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&querySQL, "sql", "", "Statement to run")
	queryCmd.Flags().StringVar(&queryFile, "file", "", "Read the statement from a file")
	queryCmd.Flags().StringVarP(&queryDatabase, "database", "d", "", "Database context for the statement")
	queryCmd.Flags().BoolVar(&queryExec, "exec", false, "Statement returns no rows; report affected rows instead")
}
