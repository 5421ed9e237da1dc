// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import "strings"

// QuoteName wraps an identifier in brackets, escaping embedded closing
// brackets. Use it wherever a statement has to splice in an object name
// that cannot be passed as a parameter (DDL, EXEC targets).
func QuoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QuoteLiteral renders a unicode string literal with embedded quotes doubled.
func QuoteLiteral(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}
