// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package permission

import (
	"fmt"
	"strings"

	"dbakit/cli/internal/sqlexec"
)

// GrantScript renders statements recreating the rows on another instance.
// Facts that cannot be expressed as a statement come back as comment lines
// so the script never silently drops anything.
func GrantScript(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, scriptRow(r))
	}
	return out
}

func scriptRow(r Row) string {
	if r.Kind == KindRoleMember {
		if r.Scope == ScopeServer {
			return fmt.Sprintf("ALTER SERVER ROLE %s ADD MEMBER %s;",
				sqlexec.QuoteName(r.Role), sqlexec.QuoteName(r.Grantee))
		}
		return fmt.Sprintf("ALTER ROLE %s ADD MEMBER %s;",
			sqlexec.QuoteName(r.Role), sqlexec.QuoteName(r.Grantee))
	}

	verb := "GRANT"
	suffix := ""
	switch strings.ToUpper(r.State) {
	case "DENY":
		verb = "DENY"
	case "GRANT_WITH_GRANT_OPTION":
		suffix = " WITH GRANT OPTION"
	case "GRANT":
	default:
		return fmt.Sprintf("-- not scripted: %s %s for %s", r.State, r.Permission, r.Grantee)
	}

	on, ok := onClause(r)
	if !ok {
		return fmt.Sprintf("-- not scripted: %s %s on %s %s for %s",
			verb, r.Permission, r.Class, r.Securable, r.Grantee)
	}

	return fmt.Sprintf("%s %s%s TO %s%s;", verb, r.Permission, on, sqlexec.QuoteName(r.Grantee), suffix)
}

func onClause(r Row) (string, bool) {
	switch strings.ToUpper(r.Class) {
	case "", "SERVER", "DATABASE":
		return "", true
	case "SERVER_PRINCIPAL":
		return " ON LOGIN::" + sqlexec.QuoteName(r.Securable), true
	case "DATABASE_PRINCIPAL":
		return " ON USER::" + sqlexec.QuoteName(r.Securable), true
	case "OBJECT_OR_COLUMN":
		return " ON OBJECT::" + qualify(r.Securable), true
	case "SCHEMA":
		return " ON SCHEMA::" + sqlexec.QuoteName(r.Securable), true
	case "ENDPOINT":
		return " ON ENDPOINT::" + sqlexec.QuoteName(r.Securable), true
	default:
		return "", false
	}
}

// qualify brackets a possibly schema-qualified name.
func qualify(name string) string {
	if schema, object, ok := strings.Cut(name, "."); ok {
		return sqlexec.QuoteName(schema) + "." + sqlexec.QuoteName(object)
	}
	return sqlexec.QuoteName(name)
}
