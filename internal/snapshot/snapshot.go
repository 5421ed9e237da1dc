// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package snapshot manages database snapshots: listing them, generating
// create and drop statements, and reverting a database to one.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dbakit/cli/internal/diskspace"
	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// Snapshot is one database snapshot on an instance.
type Snapshot struct {
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	State     string    `json:"state"`
	// OnDiskKB is the sparse files' actual footprint, not their maximum.
	OnDiskKB int64 `json:"on_disk_kb"`
}

const listQuery = `SELECT s.name, p.name AS source_name, s.create_date, s.state_desc, ISNULL(fs.on_disk_kb, 0) AS on_disk_kb
FROM sys.databases s
JOIN sys.databases p ON p.database_id = s.source_database_id
OUTER APPLY (
    SELECT SUM(vfs.size_on_disk_bytes) / 1024 AS on_disk_kb
    FROM sys.dm_io_virtual_file_stats(s.database_id, NULL) vfs
) fs
WHERE s.source_database_id IS NOT NULL
  AND (@source = N'' OR p.name = @source)
ORDER BY p.name, s.create_date`

// List returns the snapshots on the instance, optionally only those of one
// source database.
func List(ctx context.Context, c *sqlexec.Client, source string) ([]Snapshot, error) {
	rows, err := c.DB().QueryContext(ctx, listQuery, sql.Named("source", source))
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "list snapshots on "+c.DisplayName(), err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.Name, &s.Source, &s.CreatedAt, &s.State, &s.OnDiskKB); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DefaultName builds the conventional snapshot name for a database.
func DefaultName(database string, now time.Time) string {
	return database + "_" + now.Format("20060102150405")
}

// SparsePath derives the snapshot file path from a data file path: same
// directory, original stem suffixed with the snapshot name, .ss extension.
// Paths are in the server's notation, so separators are handled textually.
func SparsePath(physical, snapName string) string {
	sep := strings.LastIndexAny(physical, `\/`)
	dir, file := "", physical
	if sep >= 0 {
		dir, file = physical[:sep+1], physical[sep+1:]
	}
	if dot := strings.LastIndex(file, "."); dot > 0 {
		file = file[:dot]
	}
	return dir + file + "_" + snapName + ".ss"
}

// SparsePathIn places the sparse file under a chosen directory instead of
// next to the original, keeping the file stem. The separator follows the
// directory's own notation.
func SparsePathIn(dir, physical, snapName string) string {
	base := SparsePath(physical, snapName)
	if i := strings.LastIndexAny(base, `\/`); i >= 0 {
		base = base[i+1:]
	}
	sep := `\`
	if strings.Contains(dir, "/") {
		sep = "/"
	}
	return strings.TrimRight(dir, `\/`) + sep + base
}

// CreateStatement renders the CREATE DATABASE ... AS SNAPSHOT statement.
// Only data files participate; snapshots carry no log. FILESTREAM data
// cannot be snapshotted at all. A non-empty path collects the sparse files
// in that directory instead of next to the originals.
func CreateStatement(source, name, path string, files []diskspace.DBFile) (string, error) {
	var lines []string
	for _, f := range files {
		switch strings.ToUpper(f.Type) {
		case "ROWS":
			sparse := SparsePath(f.PhysicalName, name)
			if path != "" {
				sparse = SparsePathIn(path, f.PhysicalName, name)
			}
			lines = append(lines, fmt.Sprintf("    (NAME = %s, FILENAME = %s)",
				sqlexec.QuoteLiteral(f.LogicalName),
				sqlexec.QuoteLiteral(sparse)))
		case "FILESTREAM":
			return "", errors.New(errors.NotSupported,
				fmt.Sprintf("database %s has FILESTREAM data and cannot be snapshotted", source))
		}
	}
	if len(lines) == 0 {
		return "", errors.New(errors.ValidationFailed,
			fmt.Sprintf("database %s has no data files to snapshot", source))
	}

	return "CREATE DATABASE " + sqlexec.QuoteName(name) + " ON\n" +
		strings.Join(lines, ",\n") + "\n" +
		"AS SNAPSHOT OF " + sqlexec.QuoteName(source) + ";", nil
}

// DropStatement renders the statement removing a snapshot.
func DropStatement(name string) string {
	return "DROP DATABASE " + sqlexec.QuoteName(name) + ";"
}

// ForceDropStatements renders the drop preceded by kicking every session
// out of the snapshot, for when open connections block a plain drop.
func ForceDropStatements(name string) []string {
	return []string{
		"ALTER DATABASE " + sqlexec.QuoteName(name) + " SET SINGLE_USER WITH ROLLBACK IMMEDIATE;",
		DropStatement(name),
	}
}

// RestoreStatements renders the revert sequence. With force the source is
// first moved to single user so open sessions cannot block the restore,
// and reopened afterwards; without it the engine rejects the revert when
// sessions are connected.
func RestoreStatements(source, snap string, force bool) []string {
	restore := "RESTORE DATABASE " + sqlexec.QuoteName(source) + " FROM DATABASE_SNAPSHOT = " + sqlexec.QuoteLiteral(snap) + ";"
	if !force {
		return []string{restore}
	}
	return []string{
		"ALTER DATABASE " + sqlexec.QuoteName(source) + " SET SINGLE_USER WITH ROLLBACK IMMEDIATE;",
		restore,
		"ALTER DATABASE " + sqlexec.QuoteName(source) + " SET MULTI_USER;",
	}
}

// Siblings returns the names of other snapshots of the same source. The
// engine refuses to revert while they exist, so callers surface them
// instead of deleting anything on their own.
func Siblings(snaps []Snapshot, source, keep string) []string {
	var out []string
	for _, s := range snaps {
		if !strings.EqualFold(s.Source, source) {
			continue
		}
		if strings.EqualFold(s.Name, keep) {
			continue
		}
		out = append(out, s.Name)
	}
	return out
}

// IsSystemDatabase reports whether snapshots are off limits for the name.
func IsSystemDatabase(name string) bool {
	switch strings.ToLower(name) {
	case "master", "model", "msdb", "tempdb":
		return true
	}
	return false
}
