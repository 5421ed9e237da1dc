// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package startup

import (
	"reflect"
	"testing"
)

func TestParseTypicalInstance(t *testing.T) {
	args := []string{
		`-dC:\Program Files\Microsoft SQL Server\MSSQL15.MSSQLSERVER\MSSQL\DATA\master.mdf`,
		`-eC:\Program Files\Microsoft SQL Server\MSSQL15.MSSQLSERVER\MSSQL\Log\ERRORLOG`,
		`-lC:\Program Files\Microsoft SQL Server\MSSQL15.MSSQLSERVER\MSSQL\DATA\mastlog.ldf`,
	}

	p := Parse(args)

	if want := `C:\Program Files\Microsoft SQL Server\MSSQL15.MSSQLSERVER\MSSQL\DATA\master.mdf`; p.MasterData != want {
		t.Errorf("MasterData = %q, want %q", p.MasterData, want)
	}
	if p.ErrorLog == "" || p.MasterLog == "" {
		t.Errorf("ErrorLog/MasterLog not parsed: %+v", p)
	}
	if p.SingleUser || p.MinimalStart || len(p.TraceFlags) != 0 {
		t.Errorf("unexpected flags set: %+v", p)
	}
	if len(p.Raw) != 3 {
		t.Errorf("Raw = %v, want the 3 original args", p.Raw)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, p *Parameters)
	}{
		{
			name: "trace flags sorted",
			args: []string{"-T3226", "-T1118", "-t902"},
			check: func(t *testing.T, p *Parameters) {
				if want := []int{902, 1118, 3226}; !reflect.DeepEqual(p.TraceFlags, want) {
					t.Errorf("TraceFlags = %v, want %v", p.TraceFlags, want)
				}
			},
		},
		{
			name: "single user bare",
			args: []string{"-m"},
			check: func(t *testing.T, p *Parameters) {
				if !p.SingleUser || p.SingleUserDetail != "" {
					t.Errorf("got %+v", p)
				}
			},
		},
		{
			name: "single user with client name",
			args: []string{`-m"SQLCMD"`},
			check: func(t *testing.T, p *Parameters) {
				if !p.SingleUser || p.SingleUserDetail != "SQLCMD" {
					t.Errorf("got %+v", p)
				}
			},
		},
		{
			name: "memory to reserve explicit",
			args: []string{"-g512"},
			check: func(t *testing.T, p *Parameters) {
				if p.MemoryToReserveMB != 512 {
					t.Errorf("MemoryToReserveMB = %d, want 512", p.MemoryToReserveMB)
				}
			},
		},
		{
			name: "memory to reserve default",
			args: []string{"-g"},
			check: func(t *testing.T, p *Parameters) {
				if p.MemoryToReserveMB != 256 {
					t.Errorf("MemoryToReserveMB = %d, want 256", p.MemoryToReserveMB)
				}
			},
		},
		{
			name: "boolean switches",
			args: []string{"-f", "-n", "-s", "-x", "-c", "-E"},
			check: func(t *testing.T, p *Parameters) {
				if !p.MinimalStart || !p.NoEventLogging || !p.StartAsNamed || !p.DisableMonitor || !p.CommandPrompt || !p.IncreasedExtents {
					t.Errorf("got %+v", p)
				}
			},
		},
		{
			name: "unknown flag preserved",
			args: []string{"-y42", "-Tnotanumber", "garbage"},
			check: func(t *testing.T, p *Parameters) {
				want := []string{"-y42", "-Tnotanumber", "garbage"}
				if !reflect.DeepEqual(p.Unrecognized, want) {
					t.Errorf("Unrecognized = %v, want %v", p.Unrecognized, want)
				}
			},
		},
		{
			name: "empty list",
			args: nil,
			check: func(t *testing.T, p *Parameters) {
				if len(p.Raw) != 0 || len(p.Unrecognized) != 0 {
					t.Errorf("got %+v", p)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Parse(tt.args))
		})
	}
}
