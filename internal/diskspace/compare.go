// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package diskspace

import (
	"sort"
	"strings"
)

// Statuses of one compared file.
const (
	StatusBoth       = "both"
	StatusSourceOnly = "source-only"
	StatusDestOnly   = "dest-only"
)

// MountUnknown marks files whose destination volume could not be resolved.
const MountUnknown = "(unknown)"

// FileDelta is the space impact of one logical file on the destination.
type FileDelta struct {
	Database    string `json:"database"`
	LogicalName string `json:"logical_name"`
	Type        string `json:"type"`
	Mount       string `json:"mount"`
	SourcePath  string `json:"source_path,omitempty"`
	DestPath    string `json:"dest_path,omitempty"`
	SourceKB    int64  `json:"source_kb"`
	DestKB      int64  `json:"dest_kb"`
	// DiffKB is the extra space the destination needs: source minus
	// destination for matched files, the full size for files only the
	// source has, and negative for files only the destination has.
	DiffKB int64  `json:"diff_kb"`
	Status string `json:"status"`
}

func pathKey(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "/", `\`))
}

// MountFor resolves the volume whose mount point is the longest prefix of
// the path. Comparison is case-insensitive and separator-agnostic since
// mount points and file paths both come back in the server's notation.
func MountFor(path string, vols []Volume) (Volume, bool) {
	p := pathKey(path)
	if !strings.HasSuffix(p, `\`) {
		p += `\`
	}

	best := -1
	bestLen := -1
	for i, v := range vols {
		m := pathKey(v.MountPoint)
		if m == "" {
			continue
		}
		if !strings.HasSuffix(m, `\`) {
			m += `\`
		}
		if strings.HasPrefix(p, m) && len(m) > bestLen {
			best = i
			bestLen = len(m)
		}
	}
	if best < 0 {
		return Volume{}, false
	}
	return vols[best], true
}

// Compare matches source files against the destination copy of the same
// database by logical name and charges each delta to a destination mount.
// Files only the source has are mapped by their source path, assuming the
// destination mirrors the drive layout; unmatched paths land on
// MountUnknown.
func Compare(source, dest []DBFile, destVols []Volume) []FileDelta {
	destBy := make(map[string]DBFile, len(dest))
	for _, df := range dest {
		destBy[strings.ToLower(df.LogicalName)] = df
	}

	mountOf := func(path string) string {
		if v, ok := MountFor(path, destVols); ok {
			return v.MountPoint
		}
		return MountUnknown
	}

	matched := make(map[string]bool, len(source))
	var out []FileDelta
	for _, sf := range source {
		key := strings.ToLower(sf.LogicalName)
		if df, ok := destBy[key]; ok {
			matched[key] = true
			out = append(out, FileDelta{
				Database:    sf.Database,
				LogicalName: sf.LogicalName,
				Type:        sf.Type,
				Mount:       mountOf(df.PhysicalName),
				SourcePath:  sf.PhysicalName,
				DestPath:    df.PhysicalName,
				SourceKB:    sf.SizeKB,
				DestKB:      df.SizeKB,
				DiffKB:      sf.SizeKB - df.SizeKB,
				Status:      StatusBoth,
			})
			continue
		}
		out = append(out, FileDelta{
			Database:    sf.Database,
			LogicalName: sf.LogicalName,
			Type:        sf.Type,
			Mount:       mountOf(sf.PhysicalName),
			SourcePath:  sf.PhysicalName,
			SourceKB:    sf.SizeKB,
			DiffKB:      sf.SizeKB,
			Status:      StatusSourceOnly,
		})
	}

	for _, df := range dest {
		if matched[strings.ToLower(df.LogicalName)] {
			continue
		}
		out = append(out, FileDelta{
			Database:    df.Database,
			LogicalName: df.LogicalName,
			Type:        df.Type,
			Mount:       mountOf(df.PhysicalName),
			DestPath:    df.PhysicalName,
			DestKB:      df.SizeKB,
			DiffKB:      -df.SizeKB,
			Status:      StatusDestOnly,
		})
	}
	return out
}

// MountSummary totals the required space per destination mount.
type MountSummary struct {
	Mount      string `json:"mount"`
	RequiredKB int64  `json:"required_kb"`
	FreeKB     int64  `json:"free_kb"`
	// KnownFree is false when the mount was not among the destination
	// volumes, so FreeKB carries no information.
	KnownFree bool `json:"known_free"`
	Fits      bool `json:"fits"`
}

// Summarize folds file deltas into one row per destination mount.
func Summarize(deltas []FileDelta, destVols []Volume) []MountSummary {
	totals := make(map[string]int64)
	for _, d := range deltas {
		totals[d.Mount] += d.DiffKB
	}

	free := make(map[string]int64, len(destVols))
	for _, v := range destVols {
		free[pathKey(v.MountPoint)] = v.FreeKB
	}

	out := make([]MountSummary, 0, len(totals))
	for mount, required := range totals {
		s := MountSummary{Mount: mount, RequiredKB: required}
		if f, ok := free[pathKey(mount)]; ok {
			s.FreeKB = f
			s.KnownFree = true
			s.Fits = f >= required
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mount < out[j].Mount })
	return out
}
