// Package storage persists saved protocols, one record per competition id.
//
// A Store is built on top of a Backend, a plain key value blob store.
// The store owns serialization, schema migration and per competition
// locking, backends only move bytes.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

var (
	ErrNotFound  = errors.New("saved protocol not found")
	ErrInvalidID = errors.New("invalid competition id")
)

type (
	Store interface {
		// Save writes the record, replacing an existing one.
		// SchemaVersion and SavedAt are updated on sp.
		Save(ctx context.Context, sp *model.SavedProtocol) error
		// Load returns ErrNotFound if nothing is stored for id
		Load(ctx context.Context, id string) (*model.SavedProtocol, error)
		// UpdateResults replaces the result maps of an existing record.
		// A nil relay map keeps the stored relay results.
		// Returns ErrNotFound without creating a record if none exists.
		UpdateResults(ctx context.Context, id string, times model.ResultTimes,
			relay model.RelayResults) error
		// Delete is a no-op for unknown ids
		Delete(ctx context.Context, id string) error
		// List returns the ids of all records in ascending order
		List(ctx context.Context) ([]string, error)
		Close() error
	}

	// Backend stores opaque blobs by key.
	// Get returns ErrNotFound for unknown keys, Delete ignores them.
	Backend interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Put(ctx context.Context, key string, data []byte) error
		Delete(ctx context.Context, key string) error
		Keys(ctx context.Context) ([]string, error)
		Close() error
	}
)

// ValidateID rejects ids that cannot be used as a storage key
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) ||
		strings.ContainsRune(id, 0) {
		return ErrInvalidID
	}
	return nil
}
