// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for dbakit.
// This module manages all interactions with the OS keychain/credential store,
// providing a unified interface for the saved default instance address and the
// SQL login credentials kept per instance.
//
// The package supports macOS Keychain and Windows Credential Manager, with
// thread-safe operations and proper error handling. Linux users without a
// keyring fall back to environment-variable credentials at the CLI layer.
package keychain

import (
	"encoding/json"
	"errors"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "dbakit"

// Keys used for storing secrets in the OS keychain.
const (
	KeyDefaultInstance = "default_instance"
	credKeyPrefix      = "cred:"
	defaultCredKey     = credKeyPrefix + "default"
)

// Credential is a SQL login stored per instance.
type Credential struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// credKey derives the keychain key for an instance address. Addresses are
// case-insensitive, so the key is lowercased.
func credKey(addr string) string {
	addr = strings.TrimSpace(strings.ToLower(addr))
	if addr == "" {
		return defaultCredKey
	}
	return credKeyPrefix + addr
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}

	return &Manager{
		ring: ring,
	}, nil
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}

	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
// Forces use of macOS Keychain or Windows Credential Manager - no file fallback.
func openRing() (keyring.Keyring, error) {
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		return nil, errors.New("secure storage not supported on this OS (macOS/Windows only)")
	}

	var allowedBackends []keyring.BackendType
	if runtime.GOOS == "darwin" {
		// Try macOS Keychain first, then pass (password store) as fallback.
		// Pass requires the 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	} else if runtime.GOOS == "windows" {
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
	}

	// Hint prefixes where supported to minimize namespace collisions
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}

	return ring, nil
}

// SaveDefaultInstance stores the address used when no target is given.
// This method is thread-safe.
func (m *Manager) SaveDefaultInstance(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyDefaultInstance, addr)
	}

	return m.ring.Set(keyring.Item{Key: KeyDefaultInstance, Data: []byte(addr)})
}

// LoadDefaultInstance retrieves the saved default instance address.
// This method is thread-safe.
func (m *Manager) LoadDefaultInstance() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		return m.backend.Get(KeyDefaultInstance)
	}

	it, err := m.ring.Get(KeyDefaultInstance)
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// ClearDefaultInstance removes the saved default instance address.
// This method is thread-safe.
func (m *Manager) ClearDefaultInstance() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		_ = m.backend.Delete(KeyDefaultInstance)
		return nil
	}

	_ = m.ring.Remove(KeyDefaultInstance)
	return nil
}

// SaveCredential stores a SQL login for an instance. An empty address stores
// the shared default credential. This method is thread-safe.
func (m *Manager) SaveCredential(addr string, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	if m.backend != nil {
		return m.backend.Set(credKey(addr), string(data))
	}

	return m.ring.Set(keyring.Item{Key: credKey(addr), Data: data})
}

// LoadCredential retrieves the SQL login stored for an instance. An empty
// address reads the shared default credential. This method is thread-safe.
func (m *Manager) LoadCredential(addr string) (Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var raw []byte
	if m.backend != nil {
		s, err := m.backend.Get(credKey(addr))
		if err != nil {
			return Credential{}, err
		}
		raw = []byte(s)
	} else {
		it, err := m.ring.Get(credKey(addr))
		if err != nil {
			return Credential{}, err
		}
		raw = it.Data
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return Credential{}, err
	}
	if cred.User == "" {
		return Credential{}, errors.New("stored credential has no user")
	}
	return cred, nil
}

// ClearCredential removes the SQL login stored for an instance.
// This method is thread-safe.
func (m *Manager) ClearCredential(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		_ = m.backend.Delete(credKey(addr))
		return nil
	}

	_ = m.ring.Remove(credKey(addr))
	return nil
}
