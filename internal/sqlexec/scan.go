// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Resultset is a normalized tabular result used for table and JSON output.
type Resultset struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the resultset has no rows.
func (r *Resultset) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// scanRows drains rows into a Resultset without assuming column types.
// Drivers hand back int64, float64, bool, []byte, string, time.Time or nil.
func scanRows(rows *sql.Rows) (*Resultset, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &Resultset{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, vals)
	}
	return rs, rows.Err()
}

// MarshalJSON converts driver values into JSON-friendly forms: byte slices
// become hex strings and timestamps use RFC 3339.
func (r Resultset) MarshalJSON() ([]byte, error) {
	type alias Resultset
	out := alias{Columns: r.Columns, Rows: make([][]any, len(r.Rows))}
	for i, row := range r.Rows {
		conv := make([]any, len(row))
		for j, v := range row {
			switch t := v.(type) {
			case []byte:
				conv[j] = fmt.Sprintf("0x%x", t)
			case time.Time:
				conv[j] = t.Format(time.RFC3339Nano)
			default:
				conv[j] = v
			}
		}
		out.Rows[i] = conv
	}
	return json.Marshal(out)
}

// FormatValue renders one cell for table output.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("0x%x", t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
