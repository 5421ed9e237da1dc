// Package sqlexec provides SQL Server connectivity and query execution for
// administration commands. It wraps database/sql with the vendor TDS driver,
// normalizes tabular results for rendering, and caches per-connection server
// facts (version, edition, default paths) so commands can gate their queries
// on what the server supports.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/microsoft/go-mssqldb" // registers the sqlserver driver

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/target"
)

// Options adjust how a connection is established.
type Options struct {
	// Database overrides the database to connect to.
	Database string
	// User and Password override credentials parsed from the address.
	// When both the address and Options carry no user, the driver
	// negotiates without SQL authentication.
	User     string
	Password string
	// ConnectTimeout bounds the initial ping. Zero means 15 seconds.
	ConnectTimeout time.Duration
	// AppName is reported to the server; defaults to "dbakit".
	AppName string
}

// Client executes queries against one SQL Server instance.
type Client struct {
	db      *sql.DB
	inst    *target.Instance
	display string

	// mu protects the cached server info
	mu   sync.RWMutex
	info *ServerInfo
}

// Connect opens a connection to the instance and verifies it with a ping.
func Connect(ctx context.Context, inst *target.Instance, opts Options) (*Client, error) {
	if inst == nil {
		return nil, errors.New(errors.ConnectFailed, "no instance given")
	}

	// Copy so per-call overrides never mutate the parsed target.
	conn := *inst
	conn.Params = make(map[string]string, len(inst.Params)+1)
	for k, v := range inst.Params {
		conn.Params[k] = v
	}
	if opts.User != "" {
		conn.User = opts.User
		conn.Password = opts.Password
	}
	if opts.Database != "" {
		conn.Database = opts.Database
	}
	app := opts.AppName
	if app == "" {
		app = "dbakit"
	}
	if _, ok := conn.Params["app name"]; !ok {
		conn.Params["app name"] = app
	}

	dsn, err := target.Normalize(&conn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ConnectFailed, "open connection", err)
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ConnectFailed, fmt.Sprintf("connect to %s", inst.DisplayName()), err)
	}

	return &Client{
		db:      db,
		inst:    inst,
		display: inst.DisplayName(),
	}, nil
}

// DB exposes the underlying handle for typed scans in collectors.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Instance returns the parsed target this client is connected to.
func (c *Client) Instance() *target.Instance {
	return c.inst
}

// DisplayName returns the conventional address form for logs and tables.
func (c *Client) DisplayName() string {
	return c.display
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// Query runs a query and returns the full normalized resultset.
func (c *Client) Query(ctx context.Context, query string, args ...any) (*Resultset, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, fmt.Sprintf("query on %s", c.display), err)
	}
	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, fmt.Sprintf("read rows from %s", c.display), err)
	}
	return rs, nil
}

// Exec runs a statement and returns the affected row count when the server
// reports one.
func (c *Client) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.Wrap(errors.QueryFailed, fmt.Sprintf("statement on %s", c.display), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// Databases lists databases on the instance, excluding snapshots and, unless
// includeSystem is set, the four system databases.
func (c *Client) Databases(ctx context.Context, includeSystem bool) ([]string, error) {
	q := `SELECT name FROM sys.databases
WHERE state_desc = N'ONLINE' AND source_database_id IS NULL`
	if !includeSystem {
		q += ` AND database_id > 4`
	}
	q += ` ORDER BY name`

	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, fmt.Sprintf("list databases on %s", c.display), err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
