// Package store provides small persistent key/value storage.
//
// The service keeps a handful of configuration blobs (the model registry
// state, for one) that must survive restarts. Values are opaque bytes;
// LoadJSON and SaveJSON cover the common case.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Store persists values by key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(key string) ([]byte, error)

	// Put stores a value, overwriting any previous one.
	Put(key string, data []byte) error

	// Delete removes a key.
	// Returns nil if the key doesn't exist.
	Delete(key string) error

	// Keys returns all keys in ascending order.
	Keys() ([]string, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a key doesn't exist.
	ErrNotFound = errors.New("key not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open creates a store for the named driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// LoadJSON decodes the value stored under key into v.
// Returns ErrNotFound if the key doesn't exist.
func LoadJSON(s Store, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(key, data)
}
