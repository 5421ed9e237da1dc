// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"dbakit/cli/internal/errors"
)

// ServerInfo captures instance-level facts commands rely on for display and
// for gating version-dependent queries.
type ServerInfo struct {
	ServerName      string `json:"server_name"`
	MachineName     string `json:"machine_name"`
	InstanceName    string `json:"instance_name"`
	Edition         string `json:"edition"`
	ProductVersion  string `json:"product_version"`
	ProductLevel    string `json:"product_level"`
	Collation       string `json:"collation"`
	Clustered       bool   `json:"clustered"`
	HadrEnabled     bool   `json:"hadr_enabled"`
	DefaultDataPath string `json:"default_data_path"`
	DefaultLogPath  string `json:"default_log_path"`
	// Major is the leading component of ProductVersion (13 = 2016, 14 = 2017...).
	Major int `json:"major"`
}

// InstanceDefault*Path properties exist on 2012+; older servers return NULL.
const serverInfoQuery = `SELECT
    CONVERT(nvarchar(128), SERVERPROPERTY('ServerName'))                            AS server_name,
    CONVERT(nvarchar(128), SERVERPROPERTY('MachineName'))                           AS machine_name,
    ISNULL(CONVERT(nvarchar(128), SERVERPROPERTY('InstanceName')), N'')             AS instance_name,
    CONVERT(nvarchar(128), SERVERPROPERTY('Edition'))                               AS edition,
    CONVERT(nvarchar(128), SERVERPROPERTY('ProductVersion'))                        AS product_version,
    CONVERT(nvarchar(128), SERVERPROPERTY('ProductLevel'))                          AS product_level,
    CONVERT(nvarchar(128), SERVERPROPERTY('Collation'))                             AS collation,
    ISNULL(CONVERT(int, SERVERPROPERTY('IsClustered')), 0)                          AS is_clustered,
    ISNULL(CONVERT(int, SERVERPROPERTY('IsHadrEnabled')), 0)                        AS is_hadr_enabled,
    ISNULL(CONVERT(nvarchar(512), SERVERPROPERTY('InstanceDefaultDataPath')), N'')  AS default_data_path,
    ISNULL(CONVERT(nvarchar(512), SERVERPROPERTY('InstanceDefaultLogPath')), N'')   AS default_log_path`

// ServerInfo returns instance facts, querying the server once per client.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	c.mu.RLock()
	if c.info != nil {
		info := c.info
		c.mu.RUnlock()
		return info, nil
	}
	c.mu.RUnlock()

	var (
		info      ServerInfo
		clustered int
		hadr      int
	)
	err := c.db.QueryRowContext(ctx, serverInfoQuery).Scan(
		&info.ServerName,
		&info.MachineName,
		&info.InstanceName,
		&info.Edition,
		&info.ProductVersion,
		&info.ProductLevel,
		&info.Collation,
		&clustered,
		&hadr,
		&info.DefaultDataPath,
		&info.DefaultLogPath,
	)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, fmt.Sprintf("read server properties from %s", c.display), err)
	}
	info.Clustered = clustered == 1
	info.HadrEnabled = hadr == 1
	info.Major = majorVersion(info.ProductVersion)

	c.mu.Lock()
	c.info = &info
	c.mu.Unlock()
	return &info, nil
}

// majorVersion extracts the leading number from a dotted product version.
func majorVersion(v string) int {
	head, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return n
}
