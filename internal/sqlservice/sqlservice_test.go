// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlservice

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "default engine instance",
			in:   "SQL Server (MSSQLSERVER)",
			want: TypeEngine,
		},
		{
			name: "named engine instance",
			in:   "SQL Server (SQL2019)",
			want: TypeEngine,
		},
		{
			name: "agent",
			in:   "SQL Server Agent (MSSQLSERVER)",
			want: TypeAgent,
		},
		{
			name: "full-text daemon",
			in:   "SQL Full-text Filter Daemon Launcher (MSSQLSERVER)",
			want: TypeFullText,
		},
		{
			name: "launchpad",
			in:   "SQL Server Launchpad (MSSQLSERVER)",
			want: TypeLaunchpad,
		},
		{
			name: "unknown service",
			in:   "Some Other Daemon",
			want: TypeOther,
		},
		{
			name: "case insensitive",
			in:   "sql server agent (INST1)",
			want: TypeAgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRunning(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: "Running", want: true},
		{status: "RUNNING", want: true},
		{status: "Stopped", want: false},
		{status: "Paused", want: false},
		{status: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := Running(tt.status); got != tt.want {
				t.Errorf("Running(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
