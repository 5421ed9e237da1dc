// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package registry manages the saved server inventory in servers.yaml.
// Entries give instances short names and optional groups so commands can
// fan out over "--group prod" instead of a list of addresses.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"dbakit/cli/internal/target"
	"dbakit/cli/internal/xdg"
)

// Entry is one saved server.
type Entry struct {
	Name     string `yaml:"name" json:"name"`
	Address  string `yaml:"address" json:"address"`
	Group    string `yaml:"group,omitempty" json:"group,omitempty"`
	Database string `yaml:"database,omitempty" json:"database,omitempty"`
}

// Registry is the full saved inventory.
type Registry struct {
	Servers []Entry `yaml:"servers"`
}

func filePath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "servers.yaml"), nil
}

// Load reads the inventory. A missing file yields an empty registry.
func Load() (*Registry, error) {
	path, err := filePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{}, nil
		}
		return nil, fmt.Errorf("failed to read server registry: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse server registry: %w", err)
	}
	return &reg, nil
}

// Save writes the inventory with owner-only permissions.
func (r *Registry) Save() error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal server registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write server registry: %w", err)
	}
	return nil
}

// Add registers a server under a unique name. The address must parse.
func (r *Registry) Add(e Entry) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	if strings.ContainsAny(e.Name, " \t") {
		return fmt.Errorf("server name cannot contain whitespace")
	}
	if err := target.Validate(e.Address); err != nil {
		return err
	}
	if _, ok := r.Get(e.Name); ok {
		return fmt.Errorf("server %q is already registered, remove it first", e.Name)
	}
	r.Servers = append(r.Servers, e)
	return nil
}

// Remove drops a server by name.
func (r *Registry) Remove(name string) error {
	for i, e := range r.Servers {
		if strings.EqualFold(e.Name, name) {
			r.Servers = append(r.Servers[:i], r.Servers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("server %q is not registered", name)
}

// Get looks up a server by name, case-insensitively.
func (r *Registry) Get(name string) (Entry, bool) {
	for _, e := range r.Servers {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Group returns all servers in a group, sorted by name.
func (r *Registry) Group(group string) []Entry {
	var out []Entry
	for _, e := range r.Servers {
		if strings.EqualFold(e.Group, group) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Sorted returns every entry ordered by name for listing.
func (r *Registry) Sorted() []Entry {
	out := make([]Entry, len(r.Servers))
	copy(out, r.Servers)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
