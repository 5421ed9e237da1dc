// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package servername verifies that the name recorded in sys.servers still
// matches what the network stack reports, which breaks after a host rename,
// and repairs the record with sp_dropserver/sp_addserver. Replication and
// mirroring pin the old name, so they block the repair.
package servername

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// Report is the outcome of a server name check.
type Report struct {
	// ConfiguredName is @@SERVERNAME, the name recorded at setup time.
	ConfiguredName string `json:"configured_name"`
	// PropertyName is SERVERPROPERTY('ServerName'), which follows the host.
	PropertyName string   `json:"property_name"`
	Renamed      bool     `json:"renamed"`
	Updatable    bool     `json:"updatable"`
	Blockers     []string `json:"blockers,omitempty"`
}

// NewReport derives the verdict from the two names and any blockers.
func NewReport(configured, property string, blockers []string) *Report {
	configured = strings.TrimSpace(configured)
	property = strings.TrimSpace(property)
	return &Report{
		ConfiguredName: configured,
		PropertyName:   property,
		Renamed:        !strings.EqualFold(configured, property),
		Updatable:      len(blockers) == 0,
		Blockers:       blockers,
	}
}

const nameQuery = `SELECT
    ISNULL(@@SERVERNAME, N'') AS configured_name,
    ISNULL(CONVERT(nvarchar(128), SERVERPROPERTY('ServerName')), N'') AS property_name`

const replicationQuery = `SELECT name FROM sys.databases
WHERE is_published = 1 OR is_subscribed = 1 OR is_merge_published = 1 OR is_distributor = 1
ORDER BY name`

const mirroringQuery = `SELECT d.name
FROM sys.database_mirroring m
JOIN sys.databases d ON d.database_id = m.database_id
WHERE m.mirroring_role IS NOT NULL
ORDER BY d.name`

// Test checks whether the recorded server name is stale and whether it can
// be repaired.
func Test(ctx context.Context, c *sqlexec.Client) (*Report, error) {
	var configured, property string
	if err := c.DB().QueryRowContext(ctx, nameQuery).Scan(&configured, &property); err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read server names from "+c.DisplayName(), err)
	}

	var blockers []string
	replicated, err := queryNames(ctx, c, replicationQuery)
	if err != nil {
		return nil, err
	}
	for _, db := range replicated {
		blockers = append(blockers, fmt.Sprintf("database %s is part of replication", db))
	}

	mirrored, err := queryNames(ctx, c, mirroringQuery)
	if err != nil {
		return nil, err
	}
	for _, db := range mirrored {
		blockers = append(blockers, fmt.Sprintf("database %s is mirrored", db))
	}

	return NewReport(configured, property, blockers), nil
}

func queryNames(ctx context.Context, c *sqlexec.Client, query string) ([]string, error) {
	rows, err := c.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read rename blockers from "+c.DisplayName(), err)
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

// RepairStatements renders the repair sequence for review. The drop is
// omitted when no name was ever recorded.
func RepairStatements(oldName, newName string) []string {
	var out []string
	if strings.TrimSpace(oldName) != "" {
		out = append(out, "EXEC master.dbo.sp_dropserver @server = "+sqlexec.QuoteLiteral(oldName)+";")
	}
	out = append(out, "EXEC master.dbo.sp_addserver @server = "+sqlexec.QuoteLiteral(newName)+", @local = N'local';")
	return out
}

// Repair rewrites the recorded server name. The engine only picks the new
// name up on the next service restart; callers must say so.
func Repair(ctx context.Context, c *sqlexec.Client, rep *Report) error {
	if !rep.Renamed {
		return errors.New(errors.ValidationFailed,
			fmt.Sprintf("server name on %s already matches (%s)", c.DisplayName(), rep.PropertyName))
	}
	if !rep.Updatable {
		return errors.New(errors.ValidationFailed,
			"rename blocked: "+strings.Join(rep.Blockers, "; "))
	}

	if rep.ConfiguredName != "" {
		if _, err := c.Exec(ctx, "EXEC master.dbo.sp_dropserver @server = @name",
			sql.Named("name", rep.ConfiguredName)); err != nil {
			return err
		}
	}
	if _, err := c.Exec(ctx, "EXEC master.dbo.sp_addserver @server = @name, @local = N'local'",
		sql.Named("name", rep.PropertyName)); err != nil {
		return err
	}
	return nil
}
