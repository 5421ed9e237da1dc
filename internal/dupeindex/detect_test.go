// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dupeindex

import (
	"strings"
	"testing"
)

func asc(names ...string) []KeyColumn {
	out := make([]KeyColumn, len(names))
	for i, n := range names {
		out[i] = KeyColumn{Name: n}
	}
	return out
}

func ordersIndex(name string, key []KeyColumn, include ...string) Index {
	return Index{
		Database: "AppDB",
		Schema:   "dbo",
		Table:    "Orders",
		Name:     name,
		Key:      key,
		Include:  include,
	}
}

func TestFindExactPicksAlphabeticalKeeper(t *testing.T) {
	a := ordersIndex("IX_Orders_Customer", asc("CustomerID"))
	a.SizeKB = 100
	b := ordersIndex("IX_Orders_Customer_Copy", asc("CustomerID"))
	b.SizeKB = 120

	findings := FindExact([]Index{b, a})
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}

	f := findings[0]
	if f.Kind != KindExact {
		t.Errorf("Kind = %q", f.Kind)
	}
	if f.Keep.Name != "IX_Orders_Customer" {
		t.Errorf("Keep = %q, want IX_Orders_Customer", f.Keep.Name)
	}
	if len(f.Drop) != 1 || f.Drop[0].Name != "IX_Orders_Customer_Copy" {
		t.Errorf("Drop = %+v", f.Drop)
	}
	if f.SavingsKB() != 120 {
		t.Errorf("SavingsKB = %d, want 120", f.SavingsKB())
	}
}

func TestFindExactKeeperPreference(t *testing.T) {
	plain := ordersIndex("IX_A", asc("OrderID"))
	pk := ordersIndex("PK_Orders", asc("OrderID"))
	pk.Unique = true
	pk.PrimaryKey = true

	findings := FindExact([]Index{plain, pk})
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Keep.Name != "PK_Orders" {
		t.Errorf("Keep = %q, want the primary key", findings[0].Keep.Name)
	}
	if findings[0].Drop[0].Name != "IX_A" {
		t.Errorf("Drop = %+v", findings[0].Drop)
	}
}

func TestFindExactNeverDropsConstraintBackedIndexes(t *testing.T) {
	pk := ordersIndex("PK_Orders", asc("OrderID"))
	pk.PrimaryKey = true
	uc := ordersIndex("UQ_Orders", asc("OrderID"))
	uc.UniqueConstraint = true

	// Both members back constraints, so nothing is droppable.
	if findings := FindExact([]Index{pk, uc}); len(findings) != 0 {
		t.Errorf("got findings %+v, want none", findings)
	}
}

func TestFindExactRespectsDirectionAndFilter(t *testing.T) {
	ixAsc := ordersIndex("IX_A", []KeyColumn{{Name: "OrderDate"}})
	ixDesc := ordersIndex("IX_B", []KeyColumn{{Name: "OrderDate", Descending: true}})
	if findings := FindExact([]Index{ixAsc, ixDesc}); len(findings) != 0 {
		t.Errorf("direction mismatch reported as duplicate: %+v", findings)
	}

	filtered := ordersIndex("IX_C", asc("OrderDate"))
	filtered.Filter = "([Status]=(1))"
	plain := ordersIndex("IX_D", asc("OrderDate"))
	if findings := FindExact([]Index{filtered, plain}); len(findings) != 0 {
		t.Errorf("filter mismatch reported as duplicate: %+v", findings)
	}
}

func TestFindExactIgnoresIncludeOrderAndCase(t *testing.T) {
	a := ordersIndex("IX_A", asc("CustomerID"), "Total", "ShipDate")
	b := ordersIndex("IX_B", asc("customerid"), "shipdate", "total")

	findings := FindExact([]Index{a, b})
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
}

func TestFindOverlapping(t *testing.T) {
	narrow := ordersIndex("IX_Customer", asc("CustomerID"))
	wide := ordersIndex("IX_Customer_Date", asc("CustomerID", "OrderDate"))

	findings := FindOverlapping([]Index{narrow, wide})
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Kind != KindOverlap {
		t.Errorf("Kind = %q", f.Kind)
	}
	if f.Keep.Name != "IX_Customer_Date" || f.Drop[0].Name != "IX_Customer" {
		t.Errorf("Keep/Drop = %q/%q", f.Keep.Name, f.Drop[0].Name)
	}
}

func TestFindOverlappingSkipsUniqueNarrow(t *testing.T) {
	narrow := ordersIndex("UQ_Customer", asc("CustomerID"))
	narrow.Unique = true
	wide := ordersIndex("IX_Customer_Date", asc("CustomerID", "OrderDate"))

	if findings := FindOverlapping([]Index{narrow, wide}); len(findings) != 0 {
		t.Errorf("unique narrow index suggested for drop: %+v", findings)
	}
}

func TestFindOverlappingRequiresIncludeCoverage(t *testing.T) {
	narrow := ordersIndex("IX_Customer", asc("CustomerID"), "Total")
	wideWithout := ordersIndex("IX_Customer_Date", asc("CustomerID", "OrderDate"))

	if findings := FindOverlapping([]Index{narrow, wideWithout}); len(findings) != 0 {
		t.Errorf("wide index without Total should not cover: %+v", findings)
	}

	wideInclude := ordersIndex("IX_Customer_Date2", asc("CustomerID", "OrderDate"), "Total")
	if findings := FindOverlapping([]Index{narrow, wideInclude}); len(findings) != 1 {
		t.Errorf("include column carried in includes should cover: %+v", findings)
	}

	wideKey := ordersIndex("IX_Customer_Date3", asc("CustomerID", "Total"))
	if findings := FindOverlapping([]Index{narrow, wideKey}); len(findings) != 1 {
		t.Errorf("include column carried in the key should cover: %+v", findings)
	}
}

func TestFindOverlappingPrefersWidestKeeper(t *testing.T) {
	narrow := ordersIndex("IX_A", asc("CustomerID"))
	mid := ordersIndex("IX_AB", asc("CustomerID", "OrderDate"))
	widest := ordersIndex("IX_ABC", asc("CustomerID", "OrderDate", "ShipDate"))

	findings := FindOverlapping([]Index{narrow, mid, widest})

	// IX_A is covered (keeper IX_ABC) and IX_AB is covered by IX_ABC.
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2: %+v", len(findings), findings)
	}
	for _, f := range findings {
		if f.Keep.Name != "IX_ABC" {
			t.Errorf("Keep = %q, want IX_ABC", f.Keep.Name)
		}
	}
}

func TestFindOverlappingDifferentTablesIndependent(t *testing.T) {
	narrow := ordersIndex("IX_A", asc("CustomerID"))
	other := Index{Database: "AppDB", Schema: "dbo", Table: "Invoices", Name: "IX_B", Key: asc("CustomerID", "OrderDate")}

	if findings := FindOverlapping([]Index{narrow, other}); len(findings) != 0 {
		t.Errorf("cross-table overlap reported: %+v", findings)
	}
}

func TestDropStatements(t *testing.T) {
	weird := Index{Database: "AppDB", Schema: "dbo", Table: "Order Details", Name: "IX_weird]name", Key: asc("ID")}
	dup := ordersIndex("IX_Copy", asc("CustomerID"))

	findings := []Finding{
		{Kind: KindExact, Keep: ordersIndex("IX_Keep", asc("CustomerID")), Drop: []Index{dup}},
		{Kind: KindOverlap, Keep: ordersIndex("IX_Wide", asc("ID", "X")), Drop: []Index{weird}},
		// Same index reported twice must render once.
		{Kind: KindOverlap, Keep: ordersIndex("IX_Wide2", asc("CustomerID", "Y")), Drop: []Index{dup}},
	}

	stmts := DropStatements(findings)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2: %v", len(stmts), stmts)
	}
	if stmts[0] != "DROP INDEX [IX_Copy] ON [dbo].[Orders];" {
		t.Errorf("stmts[0] = %q", stmts[0])
	}
	if !strings.Contains(stmts[1], "[IX_weird]]name]") || !strings.Contains(stmts[1], "[Order Details]") {
		t.Errorf("stmts[1] = %q, want escaped identifiers", stmts[1])
	}
}

func TestKeySignature(t *testing.T) {
	ix := ordersIndex("IX", []KeyColumn{{Name: "A"}, {Name: "B", Descending: true}})
	if got, want := ix.KeySignature(), "a:A|b:D"; got != want {
		t.Errorf("KeySignature = %q, want %q", got, want)
	}
}
