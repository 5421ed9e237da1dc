// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package permission inventories who can do what on an instance: server
// and database role memberships plus explicit permission grants, with
// statements to recreate them elsewhere.
package permission

import (
	"context"
	"database/sql"

	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

// Row kinds and scopes.
const (
	ScopeServer   = "server"
	ScopeDatabase = "database"

	KindRoleMember = "role-member"
	KindPermission = "permission"
)

// Row is one membership or permission fact.
type Row struct {
	Scope       string `json:"scope"`
	Database    string `json:"database,omitempty"`
	Kind        string `json:"kind"`
	Grantee     string `json:"grantee"`
	GranteeType string `json:"grantee_type"`
	Role        string `json:"role,omitempty"`
	State       string `json:"state,omitempty"`
	Permission  string `json:"permission,omitempty"`
	Class       string `json:"class,omitempty"`
	Securable   string `json:"securable,omitempty"`
}

const serverRoleQuery = `SELECT r.name AS role_name, m.name AS member_name, m.type_desc
FROM sys.server_role_members rm
JOIN sys.server_principals r ON r.principal_id = rm.role_principal_id
JOIN sys.server_principals m ON m.principal_id = rm.member_principal_id
WHERE (@include_system = 1
    OR (m.name NOT LIKE N'NT SERVICE\%'
        AND m.name NOT LIKE N'NT AUTHORITY\%'
        AND m.name NOT LIKE N'##%'
        AND m.name <> N'sa'))
ORDER BY r.name, m.name`

const serverPermQuery = `SELECT p.state_desc, p.permission_name, p.class_desc,
    CASE p.class
        WHEN 100 THEN N''
        WHEN 101 THEN ISNULL(SUSER_NAME(p.major_id), N'')
        WHEN 105 THEN ISNULL((SELECT e.name FROM sys.endpoints e WHERE e.endpoint_id = p.major_id), N'')
        ELSE CONVERT(nvarchar(128), p.major_id)
    END AS securable,
    pr.name AS grantee_name, pr.type_desc
FROM sys.server_permissions p
JOIN sys.server_principals pr ON pr.principal_id = p.grantee_principal_id
WHERE (@include_system = 1
    OR (pr.name NOT LIKE N'NT SERVICE\%'
        AND pr.name NOT LIKE N'NT AUTHORITY\%'
        AND pr.name NOT LIKE N'##%'
        AND pr.name NOT IN (N'sa', N'public')))
ORDER BY pr.name, p.permission_name`

// Principals 0 through 4 are public, dbo, guest, INFORMATION_SCHEMA and sys.
const dbRoleQuery = `SELECT r.name AS role_name, m.name AS member_name, m.type_desc
FROM sys.database_role_members rm
JOIN sys.database_principals r ON r.principal_id = rm.role_principal_id
JOIN sys.database_principals m ON m.principal_id = rm.member_principal_id
WHERE (@include_system = 1 OR (m.principal_id > 4 AND m.name NOT LIKE N'##%'))
ORDER BY r.name, m.name`

const dbPermQuery = `SELECT perm.state_desc, perm.permission_name, perm.class_desc,
    CASE perm.class
        WHEN 0 THEN N''
        WHEN 1 THEN ISNULL(OBJECT_SCHEMA_NAME(perm.major_id) + N'.', N'') +
                    ISNULL(OBJECT_NAME(perm.major_id), CONVERT(nvarchar(128), perm.major_id))
        WHEN 3 THEN ISNULL(SCHEMA_NAME(perm.major_id), N'')
        WHEN 4 THEN ISNULL((SELECT dp.name FROM sys.database_principals dp WHERE dp.principal_id = perm.major_id), N'')
        ELSE CONVERT(nvarchar(128), perm.major_id)
    END AS securable,
    pr.name AS grantee_name, pr.type_desc
FROM sys.database_permissions perm
JOIN sys.database_principals pr ON pr.principal_id = perm.grantee_principal_id
WHERE (@include_system = 1 OR (pr.principal_id > 4 AND pr.name NOT LIKE N'##%'))
ORDER BY pr.name, perm.class, perm.permission_name`

// CollectServer reads server-level role memberships and permission grants.
// System principals are filtered out unless includeSystem is set.
func CollectServer(ctx context.Context, c *sqlexec.Client, includeSystem bool) ([]Row, error) {
	include := 0
	if includeSystem {
		include = 1
	}

	var out []Row

	rows, err := c.DB().QueryContext(ctx, serverRoleQuery, sql.Named("include_system", include))
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read server role members from "+c.DisplayName(), err)
	}
	out, err = appendRoleRows(out, rows, ScopeServer, "")
	if err != nil {
		return nil, err
	}

	rows, err = c.DB().QueryContext(ctx, serverPermQuery, sql.Named("include_system", include))
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read server permissions from "+c.DisplayName(), err)
	}
	return appendPermRows(out, rows, ScopeServer, "")
}

// CollectDatabase reads role memberships and permission grants of the
// database the client is connected to.
func CollectDatabase(ctx context.Context, c *sqlexec.Client, database string, includeSystem bool) ([]Row, error) {
	include := 0
	if includeSystem {
		include = 1
	}

	var out []Row

	rows, err := c.DB().QueryContext(ctx, dbRoleQuery, sql.Named("include_system", include))
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read role members of "+database+" on "+c.DisplayName(), err)
	}
	out, err = appendRoleRows(out, rows, ScopeDatabase, database)
	if err != nil {
		return nil, err
	}

	rows, err = c.DB().QueryContext(ctx, dbPermQuery, sql.Named("include_system", include))
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read permissions of "+database+" on "+c.DisplayName(), err)
	}
	return appendPermRows(out, rows, ScopeDatabase, database)
}

func appendRoleRows(out []Row, rows *sql.Rows, scope, database string) ([]Row, error) {
	defer rows.Close()
	for rows.Next() {
		r := Row{Scope: scope, Database: database, Kind: KindRoleMember}
		if err := rows.Scan(&r.Role, &r.Grantee, &r.GranteeType); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func appendPermRows(out []Row, rows *sql.Rows, scope, database string) ([]Row, error) {
	defer rows.Close()
	for rows.Next() {
		r := Row{Scope: scope, Database: database, Kind: KindPermission}
		if err := rows.Scan(&r.State, &r.Permission, &r.Class, &r.Securable, &r.Grantee, &r.GranteeType); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
