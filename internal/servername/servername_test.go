// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package servername

import (
	"reflect"
	"testing"
)

func TestNewReport(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		property   string
		blockers   []string
		renamed    bool
		updatable  bool
	}{
		{
			name:       "names match",
			configured: "SQLHOST01",
			property:   "SQLHOST01",
			renamed:    false,
			updatable:  true,
		},
		{
			name:       "match is case insensitive",
			configured: "sqlhost01\\inst1",
			property:   "SQLHOST01\\INST1",
			renamed:    false,
			updatable:  true,
		},
		{
			name:       "host was renamed",
			configured: "OLDHOST",
			property:   "NEWHOST",
			renamed:    true,
			updatable:  true,
		},
		{
			name:       "rename blocked by replication",
			configured: "OLDHOST",
			property:   "NEWHOST",
			blockers:   []string{"database AppDB is part of replication"},
			renamed:    true,
			updatable:  false,
		},
		{
			name:       "fresh install with no recorded name",
			configured: "",
			property:   "NEWHOST",
			renamed:    true,
			updatable:  true,
		},
		{
			name:       "whitespace trimmed",
			configured: " SQLHOST01 ",
			property:   "SQLHOST01",
			renamed:    false,
			updatable:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := NewReport(tt.configured, tt.property, tt.blockers)
			if rep.Renamed != tt.renamed {
				t.Errorf("Renamed = %v, want %v", rep.Renamed, tt.renamed)
			}
			if rep.Updatable != tt.updatable {
				t.Errorf("Updatable = %v, want %v", rep.Updatable, tt.updatable)
			}
		})
	}
}

func TestRepairStatements(t *testing.T) {
	got := RepairStatements("OLDHOST\\INST1", "NEWHOST\\INST1")
	want := []string{
		`EXEC master.dbo.sp_dropserver @server = N'OLDHOST\INST1';`,
		`EXEC master.dbo.sp_addserver @server = N'NEWHOST\INST1', @local = N'local';`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RepairStatements =\n%v\nwant\n%v", got, want)
	}
}

func TestRepairStatementsSkipsDropForEmptyName(t *testing.T) {
	got := RepairStatements("", "NEWHOST")
	if len(got) != 1 {
		t.Fatalf("got %v, want only the addserver statement", got)
	}
	if got[0] != `EXEC master.dbo.sp_addserver @server = N'NEWHOST', @local = N'local';` {
		t.Errorf("got[0] = %q", got[0])
	}
}

func TestRepairStatementsEscapesQuotes(t *testing.T) {
	got := RepairStatements("OLD'HOST", "NEW'HOST")
	if got[0] != `EXEC master.dbo.sp_dropserver @server = N'OLD''HOST';` {
		t.Errorf("got[0] = %q, want doubled quote", got[0])
	}
}
