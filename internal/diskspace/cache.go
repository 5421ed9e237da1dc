// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package diskspace

import (
	"context"
	"strings"
	"sync"

	"dbakit/cli/internal/sqlexec"
)

// VolumeCache memoizes destination volumes per machine for the duration of
// one invocation. Comparing many databases against one destination must not
// re-query volume stats each time, and instances sharing a machine share
// its volumes.
type VolumeCache struct {
	mu        sync.RWMutex
	byMachine map[string][]Volume
}

// NewVolumeCache creates an empty cache.
func NewVolumeCache() *VolumeCache {
	return &VolumeCache{byMachine: make(map[string][]Volume)}
}

// Get returns cached volumes for a machine.
func (vc *VolumeCache) Get(machine string) ([]Volume, bool) {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	vols, ok := vc.byMachine[strings.ToUpper(machine)]
	return vols, ok
}

// Put stores volumes for a machine.
func (vc *VolumeCache) Put(machine string, vols []Volume) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.byMachine[strings.ToUpper(machine)] = vols
}

// Fetch returns the volumes of the machine behind the client, querying it
// only on the first call per machine.
func (vc *VolumeCache) Fetch(ctx context.Context, c *sqlexec.Client) ([]Volume, error) {
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return nil, err
	}
	if vols, ok := vc.Get(info.MachineName); ok {
		return vols, nil
	}

	vols, err := Volumes(ctx, c)
	if err != nil {
		return nil, err
	}
	vc.Put(info.MachineName, vols)
	return vols, nil
}
