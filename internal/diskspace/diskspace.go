// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package diskspace estimates whether a destination instance has room for
// databases migrated from a source instance. File sizes come from
// sys.master_files and volume capacity from sys.dm_os_volume_stats, so the
// whole estimate runs over the SQL connections alone.
package diskspace

import (
	"context"
	"database/sql"
	"fmt"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// DBFile is one physical file of a database.
type DBFile struct {
	Database     string `json:"database"`
	LogicalName  string `json:"logical_name"`
	PhysicalName string `json:"physical_name"`
	Type         string `json:"type"`
	SizeKB       int64  `json:"size_kb"`
}

// size is in 8 KB pages.
const filesQuery = `SELECT type_desc, name, physical_name, CAST(size AS bigint) * 8 AS size_kb
FROM sys.master_files
WHERE database_id = DB_ID(@database)
ORDER BY type_desc, name`

// Files lists the physical files of one database.
func Files(ctx context.Context, c *sqlexec.Client, database string) ([]DBFile, error) {
	rows, err := c.DB().QueryContext(ctx, filesQuery, sql.Named("database", database))
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read files of "+database+" on "+c.DisplayName(), err)
	}
	defer rows.Close()

	var out []DBFile
	for rows.Next() {
		f := DBFile{Database: database}
		if err := rows.Scan(&f.Type, &f.LogicalName, &f.PhysicalName, &f.SizeKB); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ValidationFailed,
			fmt.Sprintf("database %s does not exist on %s", database, c.DisplayName()))
	}
	return out, nil
}

// Volume is one mounted volume the instance keeps files on.
type Volume struct {
	MountPoint string `json:"mount_point"`
	Label      string `json:"label,omitempty"`
	FileSystem string `json:"file_system,omitempty"`
	TotalKB    int64  `json:"total_kb"`
	FreeKB     int64  `json:"free_kb"`
}

// dm_os_volume_stats is a per-file function, hence the DISTINCT over all
// files the instance knows about.
const volumesQuery = `SELECT DISTINCT
    vs.volume_mount_point,
    ISNULL(vs.logical_volume_name, N'') AS logical_volume_name,
    ISNULL(vs.file_system_type, N'') AS file_system_type,
    vs.total_bytes / 1024 AS total_kb,
    vs.available_bytes / 1024 AS available_kb
FROM sys.master_files mf
CROSS APPLY sys.dm_os_volume_stats(mf.database_id, mf.file_id) vs
ORDER BY vs.volume_mount_point`

// Volumes lists every volume holding database files on the instance.
func Volumes(ctx context.Context, c *sqlexec.Client) ([]Volume, error) {
	rows, err := c.DB().QueryContext(ctx, volumesQuery)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read volumes of "+c.DisplayName(), err)
	}
	defer rows.Close()

	var out []Volume
	for rows.Next() {
		var v Volume
		if err := rows.Scan(&v.MountPoint, &v.Label, &v.FileSystem, &v.TotalKB, &v.FreeKB); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
