// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, reg.Servers)
}

func TestAddSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg := &Registry{}
	require.NoError(t, reg.Add(Entry{Name: "prod1", Address: "db01.example.com,1433", Group: "prod"}))
	require.NoError(t, reg.Add(Entry{Name: "prod2", Address: "db02.example.com\\SQL2019", Group: "prod", Database: "Inventory"}))
	require.NoError(t, reg.Add(Entry{Name: "dev", Address: "localhost"}))
	require.NoError(t, reg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	require.Len(t, loaded.Servers, 3)

	e, ok := loaded.Get("prod2")
	require.True(t, ok)
	assert.Equal(t, "db02.example.com\\SQL2019", e.Address)
	assert.Equal(t, "Inventory", e.Database)
}

func TestAddRejectsDuplicateName(t *testing.T) {
	reg := &Registry{}
	require.NoError(t, reg.Add(Entry{Name: "prod1", Address: "db01"}))

	err := reg.Add(Entry{Name: "PROD1", Address: "db09"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestAddRejectsBadAddress(t *testing.T) {
	reg := &Registry{}

	err := reg.Add(Entry{Name: "bad", Address: "db01,notaport"})
	require.Error(t, err)
}

func TestAddRejectsEmptyName(t *testing.T) {
	reg := &Registry{}

	require.Error(t, reg.Add(Entry{Name: "  ", Address: "db01"}))
	require.Error(t, reg.Add(Entry{Name: "two words", Address: "db01"}))
}

func TestRemove(t *testing.T) {
	reg := &Registry{}
	require.NoError(t, reg.Add(Entry{Name: "prod1", Address: "db01"}))

	require.NoError(t, reg.Remove("Prod1"))
	assert.Empty(t, reg.Servers)

	err := reg.Remove("prod1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestGroupFiltersAndSorts(t *testing.T) {
	reg := &Registry{}
	require.NoError(t, reg.Add(Entry{Name: "zeta", Address: "db03", Group: "prod"}))
	require.NoError(t, reg.Add(Entry{Name: "alpha", Address: "db01", Group: "prod"}))
	require.NoError(t, reg.Add(Entry{Name: "dev", Address: "db09", Group: "dev"}))

	got := reg.Group("PROD")
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, "zeta", got[1].Name)

	assert.Empty(t, reg.Group("staging"))
}
