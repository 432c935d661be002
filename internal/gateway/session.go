// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
)

// TokenStore persists the opaque session credential. Implementations must be
// safe for concurrent use.
type TokenStore interface {
	// Load returns the stored credential, or "" when none is stored.
	Load() (string, error)

	// Save stores the credential, replacing any previous value.
	Save(token string) error

	// Clear removes all stored credential material.
	Clear() error
}

// Gate tracks whether a caller currently holds a session credential and
// applies session side effects on authentication failures.
//
// The gate never blocks requests: some Aurora endpoints are publicly
// readable, so a missing credential only produces a warning at dispatch.
type Gate struct {
	store TokenStore
}

// NewGate creates a session gate over the given store.
func NewGate(store TokenStore) *Gate {
	return &Gate{store: store}
}

// HasSession returns true iff a non-empty credential is stored. Store errors
// degrade to false; they never propagate.
func (g *Gate) HasSession() bool {
	token, err := g.store.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("session store read failed")
		return false
	}
	return token != ""
}

// Token returns the stored credential, or "" when absent.
func (g *Gate) Token() string {
	token, err := g.store.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("session store read failed")
		return ""
	}
	return token
}

// SetSession stores a new credential.
func (g *Gate) SetSession(token string) {
	if err := g.store.Save(token); err != nil {
		logging.Error().Err(err).Msg("session store write failed")
	}
}

// ClearSession removes the stored credential; subsequent HasSession calls
// return false.
func (g *Gate) ClearSession() {
	if err := g.store.Clear(); err != nil {
		logging.Error().Err(err).Msg("session store clear failed")
	}
}

// isAuthPath reports whether path belongs to the authentication endpoints
// (login/logout/verify/me). Only auth endpoints clear the session on an
// authentication failure: an auth error from any other endpoint may just be
// that endpoint being unhappy while the session is still valid.
func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}

// MemoryTokenStore keeps the credential in process memory. Sessions do not
// survive restarts; suitable for tests and short-lived tooling.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load returns the stored credential.
func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Save stores the credential.
func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear removes the credential.
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// badgerTokenKey is the single key holding the session credential.
var badgerTokenKey = []byte("aurora/session-token")

// BadgerTokenStore persists the credential in BadgerDB so sessions survive
// daemon restarts.
type BadgerTokenStore struct {
	db *badger.DB
}

// NewBadgerTokenStore opens (or creates) a BadgerDB at path.
func NewBadgerTokenStore(path string) (*BadgerTokenStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for session: %w", err)
	}
	return &BadgerTokenStore{db: db}, nil
}

// Load returns the stored credential, or "" when none exists.
func (s *BadgerTokenStore) Load() (string, error) {
	var token string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerTokenKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			token = string(val)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", nil
		}
		return "", fmt.Errorf("load session token: %w", err)
	}
	return token, nil
}

// Save stores the credential.
func (s *BadgerTokenStore) Save(token string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerTokenKey, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// Clear removes the credential.
func (s *BadgerTokenStore) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerTokenKey)
	})
	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerTokenStore) Close() error {
	return s.db.Close()
}
