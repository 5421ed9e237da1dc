// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dirtree

import (
	"testing"

	"dbakit/cli/internal/sqlexec"
)

func TestBuildListing(t *testing.T) {
	rows := []row{
		{name: "backups", depth: 1},
		{name: "full", depth: 2},
		{name: "db1.bak", depth: 3, file: true},
		{name: "diff", depth: 2},
		{name: "log1.trn", depth: 3, file: true},
		{name: "readme.txt", depth: 1, file: true},
	}

	got := BuildListing(`D:\Data`, rows)
	wantPaths := []string{
		`D:\Data\backups`,
		`D:\Data\backups\full`,
		`D:\Data\backups\full\db1.bak`,
		`D:\Data\backups\diff`,
		`D:\Data\backups\diff\log1.trn`,
		`D:\Data\readme.txt`,
	}
	if len(got) != len(wantPaths) {
		t.Fatalf("got %d entries, want %d", len(got), len(wantPaths))
	}
	for i, want := range wantPaths {
		if got[i].Path != want {
			t.Errorf("entry[%d].Path = %q, want %q", i, got[i].Path, want)
		}
	}
	if !got[2].IsFile || got[1].IsFile {
		t.Errorf("file markers wrong: %+v", got)
	}
}

func TestBuildListingTrailingSeparator(t *testing.T) {
	got := BuildListing(`D:\Data\`, []row{{name: "backups", depth: 1}})
	if len(got) != 1 || got[0].Path != `D:\Data\backups` {
		t.Errorf("got %+v", got)
	}
}

func TestBuildListingLinuxRoot(t *testing.T) {
	rows := []row{
		{name: "data", depth: 1},
		{name: "master.mdf", depth: 2, file: true},
	}

	got := BuildListing("/var/opt/mssql", rows)
	if got[0].Path != "/var/opt/mssql/data" {
		t.Errorf("dir path = %q", got[0].Path)
	}
	if got[1].Path != "/var/opt/mssql/data/master.mdf" {
		t.Errorf("file path = %q", got[1].Path)
	}
}

func TestBuildListingClampsDepthGaps(t *testing.T) {
	// A child reported two levels below its parent still lands under it.
	rows := []row{
		{name: "a", depth: 1},
		{name: "orphan", depth: 5, file: true},
	}

	got := BuildListing(`C:\`, rows)
	if got[1].Path != `C:\a\orphan` {
		t.Errorf("orphan path = %q", got[1].Path)
	}
	if got[1].Depth != 2 {
		t.Errorf("orphan depth = %d, want clamped to 2", got[1].Depth)
	}
}

func TestFilterTypes(t *testing.T) {
	entries := []Entry{
		{Name: "backups", Path: `D:\Data\backups`, Depth: 1},
		{Name: "db1.bak", Path: `D:\Data\backups\db1.bak`, Depth: 2, IsFile: true},
		{Name: "db1.BAK", Path: `D:\Data\backups\db1.BAK`, Depth: 2, IsFile: true},
		{Name: "log1.trn", Path: `D:\Data\backups\log1.trn`, Depth: 2, IsFile: true},
		{Name: "noext", Path: `D:\Data\noext`, Depth: 1, IsFile: true},
	}

	got := FilterTypes(entries, []string{"bak", ".TRN"})
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(got), got)
	}
	for _, e := range got {
		if !e.IsFile {
			t.Errorf("directory survived the filter: %+v", e)
		}
	}
	if got[2].Name != "log1.trn" {
		t.Errorf("got[2] = %+v, want log1.trn", got[2])
	}
}

func TestFilterTypesNoFilter(t *testing.T) {
	entries := []Entry{
		{Name: "backups", Depth: 1},
		{Name: "db1.bak", Depth: 2, IsFile: true},
	}
	if got := FilterTypes(entries, nil); len(got) != 2 {
		t.Errorf("nil filter must keep everything, got %+v", got)
	}
}

func TestRowsFrom(t *testing.T) {
	rs := &sqlexec.Resultset{
		Columns: []string{"Subdirectory", "Depth", "File"},
		Rows: [][]any{
			{"backups", int64(1), int64(0)},
			{"db1.bak", int64(2), int64(1)},
		},
	}

	rows, err := rowsFrom(rs)
	if err != nil {
		t.Fatalf("rowsFrom: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].name != "backups" || rows[0].file {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].name != "db1.bak" || !rows[1].file {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

func TestRowsFromWithoutFileColumn(t *testing.T) {
	rs := &sqlexec.Resultset{
		Columns: []string{"subdirectory", "depth"},
		Rows:    [][]any{{"backups", int64(1)}},
	}

	rows, err := rowsFrom(rs)
	if err != nil {
		t.Fatalf("rowsFrom: %v", err)
	}
	if rows[0].file {
		t.Error("missing file column must default to directory")
	}
}

func TestRowsFromRejectsUnknownShape(t *testing.T) {
	rs := &sqlexec.Resultset{Columns: []string{"foo", "bar"}}

	if _, err := rowsFrom(rs); err == nil {
		t.Fatal("expected error for unknown columns")
	}
}
