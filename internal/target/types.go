// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package target

import "fmt"

// Instance contains parsed information from a SQL Server instance address.
type Instance struct {
	Host     string
	Name     string // named instance; empty for the default instance
	Port     int    // 0 when unspecified
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// DisplayName returns the conventional form of the address for tables and
// logs: HOST, HOST\INSTANCE or HOST,port. Credentials never appear here.
func (i *Instance) DisplayName() string {
	s := i.Host
	if i.Name != "" {
		s += "\\" + i.Name
	}
	if i.Port > 0 {
		s += fmt.Sprintf(",%d", i.Port)
	}
	return s
}

// String returns the display form of the address.
func (i *Instance) String() string {
	return i.DisplayName()
}

// ParseError represents an error that occurred during address parsing.
type ParseError struct {
	Address string
	Reason  string
	Hint    string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid instance address: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid instance address: %s", e.Reason)
}

// NewParseError creates a new ParseError.
func NewParseError(addr, reason, hint string) *ParseError {
	return &ParseError{
		Address: addr,
		Reason:  reason,
		Hint:    hint,
	}
}
