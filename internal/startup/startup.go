// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package startup reads and interprets the engine's startup parameters.
// The raw SQLArg values live in the instance registry hive, exposed through
// sys.dm_server_registry, so no host access is needed.
package startup

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// Parameters is the parsed view of the SQLArg list.
type Parameters struct {
	// File locations from -d, -e and -l.
	MasterData string `json:"master_data"`
	ErrorLog   string `json:"error_log"`
	MasterLog  string `json:"master_log"`

	// TraceFlags collects -T values. Lowercase -t flags are accepted too;
	// the engine treats them as trace flags with internal scope.
	TraceFlags []int `json:"trace_flags,omitempty"`

	SingleUser       bool   `json:"single_user"`
	SingleUserDetail string `json:"single_user_detail,omitempty"`
	MinimalStart     bool   `json:"minimal_start"`
	NoEventLogging   bool   `json:"no_event_logging"`
	StartAsNamed     bool   `json:"start_as_named"`
	DisableMonitor   bool   `json:"disable_monitor"`
	CommandPrompt    bool   `json:"command_prompt"`
	IncreasedExtents bool   `json:"increased_extents"`

	// MemoryToReserveMB is the -g value; zero when the flag is absent.
	MemoryToReserveMB int `json:"memory_to_reserve_mb,omitempty"`

	// Raw preserves the arguments in registry order.
	Raw []string `json:"raw"`
	// Unrecognized holds arguments the parser has no mapping for.
	Unrecognized []string `json:"unrecognized,omitempty"`
}

// The SQLArg names carry their ordinal as a suffix; ordering numerically
// keeps SQLArg10 after SQLArg9.
const argQuery = `SELECT CONVERT(nvarchar(512), value_data) AS value_data
FROM sys.dm_server_registry
WHERE registry_key LIKE N'%\MSSQLServer\Parameters'
  AND value_name LIKE N'SQLArg%'
ORDER BY CAST(SUBSTRING(value_name, 7, 10) AS int)`

// Collect reads and parses the startup parameters of the target.
func Collect(ctx context.Context, c *sqlexec.Client) (*Parameters, error) {
	rows, err := c.DB().QueryContext(ctx, argQuery)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read startup parameters from "+c.DisplayName(), err)
	}
	defer rows.Close()

	var args []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Parse(args), nil
}

// Parse interprets raw SQLArg values. Unknown flags are kept verbatim so
// nothing silently disappears from the report.
func Parse(args []string) *Parameters {
	p := &Parameters{Raw: args}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if len(arg) < 2 || arg[0] != '-' {
			if arg != "" {
				p.Unrecognized = append(p.Unrecognized, arg)
			}
			continue
		}

		flag := arg[1]
		rest := arg[2:]

		switch flag {
		case 'd':
			p.MasterData = rest
		case 'e':
			p.ErrorLog = rest
		case 'l':
			p.MasterLog = rest
		case 'T', 't':
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil || n <= 0 {
				p.Unrecognized = append(p.Unrecognized, arg)
				continue
			}
			p.TraceFlags = append(p.TraceFlags, n)
		case 'm':
			p.SingleUser = true
			p.SingleUserDetail = strings.Trim(rest, `"`)
		case 'f':
			p.MinimalStart = true
		case 'g':
			if rest == "" {
				// The engine applies its 256 MB default for a bare -g.
				p.MemoryToReserveMB = 256
				continue
			}
			n, err := strconv.Atoi(rest)
			if err != nil || n <= 0 {
				p.Unrecognized = append(p.Unrecognized, arg)
				continue
			}
			p.MemoryToReserveMB = n
		case 'n':
			p.NoEventLogging = true
		case 's':
			p.StartAsNamed = true
		case 'x':
			p.DisableMonitor = true
		case 'c':
			p.CommandPrompt = true
		case 'E':
			p.IncreasedExtents = true
		default:
			p.Unrecognized = append(p.Unrecognized, arg)
		}
	}

	sort.Ints(p.TraceFlags)
	return p
}
