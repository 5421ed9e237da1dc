// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlwatch removes a SqlWatch monitoring installation: its Agent
// jobs, extended event sessions and the database objects it created. The
// footprint is discovered by the add-on's naming conventions, reviewed,
// and then dropped in dependency order.
package sqlwatch

import (
	"context"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// ObjectRef is a schema-qualified database object.
type ObjectRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

// Constraint is a foreign key together with its owning table.
type Constraint struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Name   string `json:"name"`
}

// Footprint is everything a SqlWatch installation left behind.
type Footprint struct {
	Database    string       `json:"database"`
	Jobs        []string     `json:"jobs,omitempty"`
	Sessions    []string     `json:"sessions,omitempty"`
	ForeignKeys []Constraint `json:"foreign_keys,omitempty"`
	Tables      []ObjectRef  `json:"tables,omitempty"`
	Views       []ObjectRef  `json:"views,omitempty"`
	Procedures  []ObjectRef  `json:"procedures,omitempty"`
	Functions   []ObjectRef  `json:"functions,omitempty"`
}

// Empty reports whether nothing was found.
func (f *Footprint) Empty() bool {
	return f.Count() == 0
}

// Count totals the discovered objects.
func (f *Footprint) Count() int {
	return len(f.Jobs) + len(f.Sessions) + len(f.ForeignKeys) +
		len(f.Tables) + len(f.Views) + len(f.Procedures) + len(f.Functions)
}

const jobsQuery = `SELECT name FROM msdb.dbo.sysjobs
WHERE name LIKE N'SqlWatch-%'
ORDER BY name`

const sessionsQuery = `SELECT name FROM sys.server_event_sessions
WHERE name LIKE N'SQLWATCH%'
ORDER BY name`

const fkQuery = `SELECT s.name, t.name, fk.name
FROM sys.foreign_keys fk
JOIN sys.tables t ON t.object_id = fk.parent_object_id
JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE t.name LIKE N'sqlwatch\_%' ESCAPE N'\'
ORDER BY s.name, t.name, fk.name`

const tablesQuery = `SELECT s.name, t.name
FROM sys.tables t
JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE t.name LIKE N'sqlwatch\_%' ESCAPE N'\'
ORDER BY s.name, t.name`

const viewsQuery = `SELECT s.name, v.name
FROM sys.views v
JOIN sys.schemas s ON s.schema_id = v.schema_id
WHERE v.name LIKE N'vw\_sqlwatch\_%' ESCAPE N'\'
ORDER BY s.name, v.name`

const proceduresQuery = `SELECT s.name, p.name
FROM sys.procedures p
JOIN sys.schemas s ON s.schema_id = p.schema_id
WHERE p.name LIKE N'usp\_sqlwatch\_%' ESCAPE N'\'
ORDER BY s.name, p.name`

const functionsQuery = `SELECT s.name, o.name
FROM sys.objects o
JOIN sys.schemas s ON s.schema_id = o.schema_id
WHERE o.type IN ('FN', 'IF', 'TF')
  AND o.name LIKE N'ufn\_sqlwatch\_%' ESCAPE N'\'
ORDER BY s.name, o.name`

// Discover inventories the SqlWatch footprint. The client must be
// connected to the database SqlWatch was installed into; jobs and event
// sessions are instance-wide and found regardless.
func Discover(ctx context.Context, c *sqlexec.Client, database string) (*Footprint, error) {
	f := &Footprint{Database: database}

	var err error
	if f.Jobs, err = names(ctx, c, jobsQuery); err != nil {
		return nil, err
	}
	if f.Sessions, err = names(ctx, c, sessionsQuery); err != nil {
		return nil, err
	}

	fkRows, err := c.DB().QueryContext(ctx, fkQuery)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "discover SqlWatch constraints on "+c.DisplayName(), err)
	}
	defer fkRows.Close()
	for fkRows.Next() {
		var fk Constraint
		if err := fkRows.Scan(&fk.Schema, &fk.Table, &fk.Name); err != nil {
			return nil, err
		}
		f.ForeignKeys = append(f.ForeignKeys, fk)
	}
	if err := fkRows.Err(); err != nil {
		return nil, err
	}

	if f.Tables, err = objects(ctx, c, tablesQuery); err != nil {
		return nil, err
	}
	if f.Views, err = objects(ctx, c, viewsQuery); err != nil {
		return nil, err
	}
	if f.Procedures, err = objects(ctx, c, proceduresQuery); err != nil {
		return nil, err
	}
	if f.Functions, err = objects(ctx, c, functionsQuery); err != nil {
		return nil, err
	}
	return f, nil
}

func names(ctx context.Context, c *sqlexec.Client, query string) ([]string, error) {
	rows, err := c.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "discover SqlWatch objects on "+c.DisplayName(), err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func objects(ctx context.Context, c *sqlexec.Client, query string) ([]ObjectRef, error) {
	rows, err := c.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "discover SqlWatch objects on "+c.DisplayName(), err)
	}
	defer rows.Close()

	var out []ObjectRef
	for rows.Next() {
		var o ObjectRef
		if err := rows.Scan(&o.Schema, &o.Name); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
