// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package release

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"dbakit/cli/internal/xdg"
)

// cacheTTL keeps the update check from hitting the network on every run.
const cacheTTL = 24 * time.Hour

type cachedRelease struct {
	Release   Release   `json:"release"`
	FetchedAt time.Time `json:"fetched_at"`
}

func cachePath() (string, error) {
	dir, err := xdg.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "release-check.json"), nil
}

func loadCached(now time.Time) (*Release, bool) {
	path, err := cachePath()
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var c cachedRelease
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, false
	}
	if c.Release.Version == "" || now.Sub(c.FetchedAt) > cacheTTL {
		return nil, false
	}
	return &c.Release, true
}

// storeCached is best effort; a failed write only costs an extra fetch.
func storeCached(rel *Release, now time.Time) {
	path, err := cachePath()
	if err != nil {
		return
	}
	data, err := json.Marshal(cachedRelease{Release: *rel, FetchedAt: now})
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0600)
}

// Check returns the latest published release, consulting the disk cache
// before the network.
func Check(ctx context.Context) (*Release, error) {
	now := time.Now()
	if rel, ok := loadCached(now); ok {
		return rel, nil
	}

	rel, err := NewFetcher().Fetch(ctx)
	if err != nil {
		return nil, err
	}
	storeCached(rel, now)
	return rel, nil
}
