// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlwatch

import "testing"

func sampleFootprint() *Footprint {
	return &Footprint{
		Database: "SQLWATCH",
		Jobs:     []string{"SqlWatch-LogicalDiskUtilisation", "SqlWatch-PerformanceCollector"},
		Sessions: []string{"SQLWATCH_long_queries"},
		ForeignKeys: []Constraint{
			{Schema: "dbo", Table: "sqlwatch_logger_perf", Name: "fk_sqlwatch_logger_perf_header"},
		},
		Tables: []ObjectRef{
			{Schema: "dbo", Name: "sqlwatch_logger_perf"},
			{Schema: "dbo", Name: "sqlwatch_meta_server"},
		},
		Views:      []ObjectRef{{Schema: "dbo", Name: "vw_sqlwatch_report_dim_date"}},
		Procedures: []ObjectRef{{Schema: "dbo", Name: "usp_sqlwatch_internal_add_header"}},
		Functions:  []ObjectRef{{Schema: "dbo", Name: "ufn_sqlwatch_get_datepart"}},
	}
}

func TestFootprintCount(t *testing.T) {
	f := sampleFootprint()
	if got := f.Count(); got != 9 {
		t.Errorf("Count = %d, want 9", got)
	}
	if f.Empty() {
		t.Error("Empty = true for a populated footprint")
	}
	if !(&Footprint{}).Empty() {
		t.Error("Empty = false for a fresh footprint")
	}
}

func TestDropPlanOrder(t *testing.T) {
	plan := DropPlan(sampleFootprint())

	wantKinds := []string{
		KindJob, KindJob, KindSession, KindForeignKey,
		KindTable, KindTable, KindView, KindProcedure, KindFunction,
	}
	if len(plan) != len(wantKinds) {
		t.Fatalf("got %d statements, want %d", len(plan), len(wantKinds))
	}
	for i, want := range wantKinds {
		if plan[i].Kind != want {
			t.Fatalf("plan[%d].Kind = %q, want %q", i, plan[i].Kind, want)
		}
	}
}

func TestDropPlanStatements(t *testing.T) {
	plan := DropPlan(sampleFootprint())

	wants := map[string]string{
		"SqlWatch-PerformanceCollector":   `EXEC msdb.dbo.sp_delete_job @job_name = N'SqlWatch-PerformanceCollector';`,
		"SQLWATCH_long_queries":           "DROP EVENT SESSION [SQLWATCH_long_queries] ON SERVER;",
		"fk_sqlwatch_logger_perf_header":  "ALTER TABLE [dbo].[sqlwatch_logger_perf] DROP CONSTRAINT [fk_sqlwatch_logger_perf_header];",
		"dbo.sqlwatch_meta_server":        "DROP TABLE [dbo].[sqlwatch_meta_server];",
		"dbo.vw_sqlwatch_report_dim_date": "DROP VIEW [dbo].[vw_sqlwatch_report_dim_date];",
		"dbo.usp_sqlwatch_internal_add_header": "DROP PROCEDURE [dbo].[usp_sqlwatch_internal_add_header];",
		"dbo.ufn_sqlwatch_get_datepart":        "DROP FUNCTION [dbo].[ufn_sqlwatch_get_datepart];",
	}

	byName := make(map[string]string)
	for _, s := range plan {
		byName[s.Name] = s.SQL
	}
	for name, want := range wants {
		if got := byName[name]; got != want {
			t.Errorf("statement for %s = %q, want %q", name, got, want)
		}
	}
}

func TestDropPlanEmptyFootprint(t *testing.T) {
	if plan := DropPlan(&Footprint{}); len(plan) != 0 {
		t.Errorf("got %d statements for an empty footprint", len(plan))
	}
}
