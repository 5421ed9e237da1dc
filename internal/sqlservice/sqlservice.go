// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlservice reports the state of SQL Server related services on a
// target. The data comes from sys.dm_server_services over the regular SQL
// connection, which covers the engine, Agent, full-text and Launchpad
// services but not host services the engine cannot see (Browser, SSRS).
package sqlservice

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// Service types derived from the reported service name.
const (
	TypeEngine    = "Engine"
	TypeAgent     = "Agent"
	TypeFullText  = "Full-Text"
	TypeLaunchpad = "Launchpad"
	TypeOther     = "Other"
)

// Service is one row of sys.dm_server_services.
type Service struct {
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	StartupType    string    `json:"startup_type"`
	Status         string    `json:"status"`
	ProcessID      int       `json:"process_id,omitempty"`
	ServiceAccount string    `json:"service_account"`
	BinaryPath     string    `json:"binary_path"`
	Clustered      bool      `json:"clustered"`
	ClusterNode    string    `json:"cluster_node,omitempty"`
	LastStartup    time.Time `json:"last_startup,omitempty"`
	// InstantFileInit is Y or N on 2016 SP1 and later, empty when the
	// server does not expose the column.
	InstantFileInit string `json:"instant_file_init,omitempty"`
}

const baseColumns = `servicename,
    ISNULL(startup_type_desc, N'') AS startup_type_desc,
    ISNULL(status_desc, N'') AS status_desc,
    ISNULL(process_id, 0) AS process_id,
    ISNULL(service_account, N'') AS service_account,
    ISNULL(filename, N'') AS filename,
    ISNULL(is_clustered, N'N') AS is_clustered,
    ISNULL(cluster_nodename, N'') AS cluster_nodename,
    last_startup_time`

const serviceQuery = `SELECT ` + baseColumns + `
FROM sys.dm_server_services`

// instant_file_initialization_enabled arrived in 2016 SP1.
const serviceQueryIFI = `SELECT ` + baseColumns + `,
    ISNULL(instant_file_initialization_enabled, N'') AS ifi
FROM sys.dm_server_services`

// Collect reads the service inventory from the target.
func Collect(ctx context.Context, c *sqlexec.Client) ([]Service, error) {
	withIFI := false
	if info, err := c.ServerInfo(ctx); err == nil && info.Major >= 13 {
		withIFI = true
	}

	query := serviceQuery
	if withIFI {
		query = serviceQueryIFI
	}

	rows, err := c.DB().QueryContext(ctx, query)
	if err != nil && withIFI {
		// SP level below 2016 SP1 lacks the column; retry without it.
		withIFI = false
		rows, err = c.DB().QueryContext(ctx, serviceQuery)
	}
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read service inventory from "+c.DisplayName(), err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var (
			s         Service
			clustered string
			started   sql.NullTime
			ifi       string
		)
		dest := []any{
			&s.Name, &s.StartupType, &s.Status, &s.ProcessID,
			&s.ServiceAccount, &s.BinaryPath, &clustered, &s.ClusterNode, &started,
		}
		if withIFI {
			dest = append(dest, &ifi)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		s.Type = Classify(s.Name)
		s.Clustered = strings.EqualFold(clustered, "Y")
		if started.Valid {
			s.LastStartup = started.Time
		}
		s.InstantFileInit = strings.ToUpper(strings.TrimSpace(ifi))
		out = append(out, s)
	}
	return out, rows.Err()
}

// Classify maps a reported service name onto a coarse type.
func Classify(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "sql server agent"):
		return TypeAgent
	case strings.HasPrefix(n, "sql full-text filter daemon launcher"):
		return TypeFullText
	case strings.HasPrefix(n, "sql server launchpad"):
		return TypeLaunchpad
	case strings.HasPrefix(n, "sql server"):
		return TypeEngine
	default:
		return TypeOther
	}
}

// Running reports whether the service status counts as up.
func Running(status string) bool {
	return strings.EqualFold(status, "Running")
}
