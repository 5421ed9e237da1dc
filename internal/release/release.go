// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package release checks for newer published builds of the CLI.
package release

import (
	"strconv"
	"strings"
)

// Release describes one published build.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes,omitempty"`
}

// IsNewer reports whether candidate is a later version than current.
// Versions are dotted numbers with an optional leading v and an optional
// pre-release suffix after a dash; dev builds always count as older.
func IsNewer(current, candidate string) bool {
	cur := versionParts(current)
	cand := versionParts(candidate)
	for i := 0; i < 3; i++ {
		if cand[i] != cur[i] {
			return cand[i] > cur[i]
		}
	}
	return false
}

func versionParts(v string) [3]int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v, _, _ = strings.Cut(v, "-")

	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		if i >= 3 {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}
