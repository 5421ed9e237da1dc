// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlwatch

import (
	"context"
	"fmt"

	"dbakit/cli/internal/sqlexec"
)

// Statement kinds, in drop order.
const (
	KindJob        = "job"
	KindSession    = "session"
	KindForeignKey = "foreign-key"
	KindTable      = "table"
	KindView       = "view"
	KindProcedure  = "procedure"
	KindFunction   = "function"
)

// Statement is one step of the teardown.
type Statement struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// DropPlan renders the teardown in dependency order: jobs and sessions
// first so nothing keeps writing, then constraints before their tables,
// then the remaining objects.
func DropPlan(f *Footprint) []Statement {
	var out []Statement

	for _, job := range f.Jobs {
		out = append(out, Statement{
			Kind: KindJob,
			Name: job,
			SQL:  "EXEC msdb.dbo.sp_delete_job @job_name = " + sqlexec.QuoteLiteral(job) + ";",
		})
	}
	for _, session := range f.Sessions {
		out = append(out, Statement{
			Kind: KindSession,
			Name: session,
			SQL:  "DROP EVENT SESSION " + sqlexec.QuoteName(session) + " ON SERVER;",
		})
	}
	for _, fk := range f.ForeignKeys {
		out = append(out, Statement{
			Kind: KindForeignKey,
			Name: fk.Name,
			SQL: fmt.Sprintf("ALTER TABLE %s.%s DROP CONSTRAINT %s;",
				sqlexec.QuoteName(fk.Schema), sqlexec.QuoteName(fk.Table), sqlexec.QuoteName(fk.Name)),
		})
	}
	out = appendObjectDrops(out, KindTable, "DROP TABLE", f.Tables)
	out = appendObjectDrops(out, KindView, "DROP VIEW", f.Views)
	out = appendObjectDrops(out, KindProcedure, "DROP PROCEDURE", f.Procedures)
	out = appendObjectDrops(out, KindFunction, "DROP FUNCTION", f.Functions)
	return out
}

func appendObjectDrops(out []Statement, kind, verb string, objs []ObjectRef) []Statement {
	for _, o := range objs {
		out = append(out, Statement{
			Kind: kind,
			Name: o.Schema + "." + o.Name,
			SQL:  fmt.Sprintf("%s %s.%s;", verb, sqlexec.QuoteName(o.Schema), sqlexec.QuoteName(o.Name)),
		})
	}
	return out
}

// ApplyResult is the outcome of one executed teardown step.
type ApplyResult struct {
	Statement Statement
	Err       error
}

// Apply executes the plan, continuing past failures so a single stuck
// object does not leave everything else behind.
func Apply(ctx context.Context, c *sqlexec.Client, plan []Statement) []ApplyResult {
	out := make([]ApplyResult, 0, len(plan))
	for _, stmt := range plan {
		if err := ctx.Err(); err != nil {
			out = append(out, ApplyResult{Statement: stmt, Err: err})
			continue
		}
		_, err := c.Exec(ctx, stmt.SQL)
		out = append(out, ApplyResult{Statement: stmt, Err: err})
	}
	return out
}
