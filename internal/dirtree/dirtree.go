// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dirtree lists files and directories on the server's own disks
// through xp_dirtree, so no share or host access is needed. Paths are in
// the server's notation and never touched by the local filesystem API.
package dirtree

import (
	"context"
	"fmt"
	"strings"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// Entry is one file or directory under the browsed root.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Depth  int    `json:"depth"`
	IsFile bool   `json:"is_file"`
}

type row struct {
	name  string
	depth int
	file  bool
}

// Collect browses a directory on the target up to the given depth.
func Collect(ctx context.Context, c *sqlexec.Client, path string, depth int) ([]Entry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New(errors.ValidationFailed, "no path to browse")
	}
	if depth <= 0 {
		depth = 1
	}

	rs, err := c.Query(ctx, "EXEC master.sys.xp_dirtree @p1, @p2, 1", path, depth)
	if err != nil {
		return nil, err
	}

	rows, err := rowsFrom(rs)
	if err != nil {
		return nil, err
	}
	return BuildListing(path, rows), nil
}

// xp_dirtree reports name, depth and a file marker, parents always before
// their children. rowsFrom tolerates column order and case differences
// across server versions.
func rowsFrom(rs *sqlexec.Resultset) ([]row, error) {
	nameIdx, depthIdx, fileIdx := -1, -1, -1
	for i, col := range rs.Columns {
		switch strings.ToLower(col) {
		case "subdirectory":
			nameIdx = i
		case "depth":
			depthIdx = i
		case "file":
			fileIdx = i
		}
	}
	if nameIdx < 0 || depthIdx < 0 {
		return nil, errors.New(errors.ParseFailed,
			fmt.Sprintf("unexpected xp_dirtree columns: %v", rs.Columns))
	}

	out := make([]row, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		entry := row{
			name:  asString(r[nameIdx]),
			depth: asInt(r[depthIdx]),
		}
		if fileIdx >= 0 {
			entry.file = asInt(r[fileIdx]) == 1
		}
		out = append(out, entry)
	}
	return out, nil
}

// BuildListing turns the flat depth-ordered rows into entries with full
// paths, using the separator style of the root.
func BuildListing(root string, rows []row) []Entry {
	sep := `\`
	if strings.Contains(root, "/") && !strings.Contains(root, `\`) {
		sep = "/"
	}
	base := strings.TrimRight(root, `\/`)

	var stack []string
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		if r.name == "" || r.depth < 1 {
			continue
		}
		d := r.depth
		if d > len(stack)+1 {
			d = len(stack) + 1
		}
		stack = stack[:d-1]

		path := base + sep + strings.Join(append(append([]string{}, stack...), r.name), sep)
		out = append(out, Entry{Name: r.name, Path: path, Depth: d, IsFile: r.file})

		if !r.file {
			stack = append(stack, r.name)
		}
	}
	return out
}

// FilterTypes reduces a listing to the files carrying one of the given
// extensions. Directories are dropped since each entry's path already
// locates it. Extensions match case-insensitively, with or without a
// leading dot. No extensions means no filtering.
func FilterTypes(entries []Entry, types []string) []Entry {
	if len(types) == 0 {
		return entries
	}
	want := make(map[string]bool, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if t != "" {
			want[t] = true
		}
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsFile {
			continue
		}
		name := strings.ToLower(e.Name)
		if dot := strings.LastIndex(name, "."); dot >= 0 && want[name[dot+1:]] {
			out = append(out, e)
		}
	}
	return out
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(v)
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}
