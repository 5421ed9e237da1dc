// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dupeindex finds redundant nonclustered indexes in a database.
// Two flavors are reported: exact duplicates (same key, includes and
// filter) and overlaps (an index whose key is a strict prefix of a wider
// index that also covers its included columns).
package dupeindex

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// KeyColumn is one ordered key column of an index.
type KeyColumn struct {
	Name       string `json:"name"`
	Descending bool   `json:"descending"`
}

// Index describes one index with enough detail to compare and to size the
// win from dropping it.
type Index struct {
	Database         string      `json:"database"`
	Schema           string      `json:"schema"`
	Table            string      `json:"table"`
	Name             string      `json:"name"`
	IndexID          int         `json:"index_id"`
	Unique           bool        `json:"unique"`
	PrimaryKey       bool        `json:"primary_key"`
	UniqueConstraint bool        `json:"unique_constraint"`
	Filter           string      `json:"filter,omitempty"`
	Key              []KeyColumn `json:"key"`
	Include          []string    `json:"include,omitempty"`
	RowCount         int64       `json:"row_count"`
	SizeKB           int64       `json:"size_kb"`
}

// KeySignature folds the ordered key columns into a comparable string.
func (ix *Index) KeySignature() string {
	parts := make([]string, len(ix.Key))
	for i, k := range ix.Key {
		dir := "A"
		if k.Descending {
			dir = "D"
		}
		parts[i] = strings.ToLower(k.Name) + ":" + dir
	}
	return strings.Join(parts, "|")
}

// IncludeSignature folds the include set into an order-free string.
func (ix *Index) IncludeSignature() string {
	parts := make([]string, len(ix.Include))
	for i, c := range ix.Include {
		parts[i] = strings.ToLower(c)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// protected indexes back constraints and are never suggested for removal.
func (ix *Index) protected() bool {
	return ix.PrimaryKey || ix.UniqueConstraint
}

func (ix *Index) tableKey() string {
	return strings.ToLower(ix.Database + "|" + ix.Schema + "|" + ix.Table)
}

// One row per index column; indexes are reassembled in order. Heaps,
// hypothetical and disabled indexes are out of scope.
const indexQuery = `SELECT
    sch.name AS schema_name,
    tbl.name AS table_name,
    idx.name AS index_name,
    idx.index_id,
    idx.is_unique,
    idx.is_primary_key,
    idx.is_unique_constraint,
    ISNULL(idx.filter_definition, N'') AS filter_definition,
    col.name AS column_name,
    ic.key_ordinal,
    ic.is_descending_key,
    ic.is_included_column,
    ISNULL(stat.row_count, 0) AS row_count,
    ISNULL(stat.used_kb, 0) AS used_kb
FROM sys.indexes idx
JOIN sys.tables tbl ON tbl.object_id = idx.object_id
JOIN sys.schemas sch ON sch.schema_id = tbl.schema_id
JOIN sys.index_columns ic ON ic.object_id = idx.object_id AND ic.index_id = idx.index_id
JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
OUTER APPLY (
    SELECT SUM(ps.row_count) AS row_count, SUM(ps.used_page_count) * 8 AS used_kb
    FROM sys.dm_db_partition_stats ps
    WHERE ps.object_id = idx.object_id AND ps.index_id = idx.index_id
) stat
WHERE idx.index_id > 0
  AND idx.is_hypothetical = 0
  AND idx.is_disabled = 0
  AND tbl.is_ms_shipped = 0
ORDER BY sch.name, tbl.name, idx.index_id, ic.is_included_column, ic.key_ordinal, col.name`

// Collect reads all comparable indexes of the database the client is
// connected to.
func Collect(ctx context.Context, c *sqlexec.Client, database string) ([]Index, error) {
	rows, err := c.DB().QueryContext(ctx, indexQuery)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read indexes of "+database+" on "+c.DisplayName(), err)
	}
	defer rows.Close()

	var (
		out     []Index
		current *Index
		curKey  string
	)
	flush := func() {
		if current != nil {
			out = append(out, *current)
			current = nil
		}
	}

	for rows.Next() {
		var (
			schema, table string
			name          sql.NullString
			indexID       int
			unique, pk    bool
			uc            bool
			filter        string
			column        string
			keyOrdinal    int
			descending    bool
			included      bool
			rowCount      int64
			usedKB        int64
		)
		if err := rows.Scan(&schema, &table, &name, &indexID, &unique, &pk, &uc,
			&filter, &column, &keyOrdinal, &descending, &included, &rowCount, &usedKB); err != nil {
			return nil, err
		}

		key := schema + "|" + table + "|" + strconv.Itoa(indexID)
		if current == nil || key != curKey {
			flush()
			current = &Index{
				Database:         database,
				Schema:           schema,
				Table:            table,
				Name:             name.String,
				IndexID:          indexID,
				Unique:           unique,
				PrimaryKey:       pk,
				UniqueConstraint: uc,
				Filter:           filter,
				RowCount:         rowCount,
				SizeKB:           usedKB,
			}
			curKey = key
		}
		if included {
			current.Include = append(current.Include, column)
		} else if keyOrdinal > 0 {
			current.Key = append(current.Key, KeyColumn{Name: column, Descending: descending})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}
