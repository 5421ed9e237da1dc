// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dupeindex

import (
	"fmt"
	"sort"
	"strings"

	"dbakit/cli/internal/sqlexec"
)

// Finding kinds.
const (
	KindExact   = "exact"
	KindOverlap = "overlap"
)

// Finding is one redundancy: indexes in Drop are covered by Keep.
type Finding struct {
	Kind string  `json:"kind"`
	Keep Index   `json:"keep"`
	Drop []Index `json:"drop"`
}

// SavingsKB sums the size of the droppable indexes.
func (f *Finding) SavingsKB() int64 {
	var total int64
	for _, ix := range f.Drop {
		total += ix.SizeKB
	}
	return total
}

// FindExact groups indexes that are byte-for-byte equivalent in key order,
// include set and filter, keeping the most constrained member of each group.
func FindExact(indexes []Index) []Finding {
	groups := make(map[string][]Index)
	for _, ix := range indexes {
		sig := ix.tableKey() + "|" + ix.KeySignature() + "|" + ix.IncludeSignature() + "|" + strings.ToLower(ix.Filter)
		groups[sig] = append(groups[sig], ix)
	}

	var findings []Finding
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return keeperLess(group[i], group[j]) })

		keep := group[0]
		var drop []Index
		for _, ix := range group[1:] {
			if ix.protected() {
				continue
			}
			drop = append(drop, ix)
		}
		if len(drop) == 0 {
			continue
		}
		findings = append(findings, Finding{Kind: KindExact, Keep: keep, Drop: drop})
	}

	sortFindings(findings)
	return findings
}

// FindOverlapping reports indexes whose key is a strict prefix of a wider
// index on the same table with the same filter, provided the wider index
// also carries the narrow one's included columns. Unique and constraint
// backed indexes are never suggested for removal since dropping them would
// change semantics.
func FindOverlapping(indexes []Index) []Finding {
	byTable := make(map[string][]Index)
	for _, ix := range indexes {
		byTable[ix.tableKey()] = append(byTable[ix.tableKey()], ix)
	}

	var findings []Finding
	for _, group := range byTable {
		for _, narrow := range group {
			if narrow.protected() || narrow.Unique {
				continue
			}

			var covers []Index
			for _, wide := range group {
				if strings.EqualFold(wide.Name, narrow.Name) {
					continue
				}
				if !strings.EqualFold(wide.Filter, narrow.Filter) {
					continue
				}
				if !keyIsStrictPrefix(narrow.Key, wide.Key) {
					continue
				}
				if !coversIncludes(narrow, wide) {
					continue
				}
				covers = append(covers, wide)
			}
			if len(covers) == 0 {
				continue
			}

			// Prefer the widest covering index, then the most constrained.
			sort.Slice(covers, func(i, j int) bool {
				if len(covers[i].Key) != len(covers[j].Key) {
					return len(covers[i].Key) > len(covers[j].Key)
				}
				return keeperLess(covers[i], covers[j])
			})
			findings = append(findings, Finding{Kind: KindOverlap, Keep: covers[0], Drop: []Index{narrow}})
		}
	}

	sortFindings(findings)
	return findings
}

// DropStatements renders deduplicated DROP INDEX statements for every
// droppable index across the findings.
func DropStatements(findings []Finding) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range findings {
		for _, ix := range f.Drop {
			id := strings.ToLower(ix.Database + "|" + ix.Schema + "|" + ix.Table + "|" + ix.Name)
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, fmt.Sprintf("DROP INDEX %s ON %s.%s;",
				sqlexec.QuoteName(ix.Name), sqlexec.QuoteName(ix.Schema), sqlexec.QuoteName(ix.Table)))
		}
	}
	return out
}

func keeperLess(a, b Index) bool {
	ra, rb := keepRank(a), keepRank(b)
	if ra != rb {
		return ra < rb
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func keepRank(ix Index) int {
	switch {
	case ix.PrimaryKey:
		return 0
	case ix.UniqueConstraint:
		return 1
	case ix.Unique:
		return 2
	default:
		return 3
	}
}

func keyIsStrictPrefix(narrow, wide []KeyColumn) bool {
	if len(narrow) == 0 || len(narrow) >= len(wide) {
		return false
	}
	for i, k := range narrow {
		if !strings.EqualFold(k.Name, wide[i].Name) || k.Descending != wide[i].Descending {
			return false
		}
	}
	return true
}

func coversIncludes(narrow, wide Index) bool {
	if len(narrow.Include) == 0 {
		return true
	}
	carried := make(map[string]bool, len(wide.Key)+len(wide.Include))
	for _, k := range wide.Key {
		carried[strings.ToLower(k.Name)] = true
	}
	for _, c := range wide.Include {
		carried[strings.ToLower(c)] = true
	}
	for _, c := range narrow.Include {
		if !carried[strings.ToLower(c)] {
			return false
		}
	}
	return true
}

func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Keep.Database != b.Keep.Database {
			return a.Keep.Database < b.Keep.Database
		}
		if a.Keep.Schema != b.Keep.Schema {
			return a.Keep.Schema < b.Keep.Schema
		}
		if a.Keep.Table != b.Keep.Table {
			return a.Keep.Table < b.Keep.Table
		}
		if a.Keep.Name != b.Keep.Name {
			return a.Keep.Name < b.Keep.Name
		}
		if len(a.Drop) > 0 && len(b.Drop) > 0 {
			return a.Drop[0].Name < b.Drop[0].Name
		}
		return false
	})
}
