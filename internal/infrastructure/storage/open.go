package storage

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/core/ports"
)

// MemoryPath selects the in-memory store instead of a database file
const MemoryPath = ":memory:"

// Store combines the cache and token persistence ports; both backends
// implement it over the same underlying storage.
type Store interface {
	ports.CacheStore
	ports.TokenStore
	io.Closer
}

// Open returns a store backed by the database file at path, or an
// in-memory store when path is MemoryPath
func Open(path string, defaultTTL time.Duration, logger zerolog.Logger) (Store, error) {
	if path == MemoryPath {
		return NewMemoryStore(defaultTTL), nil
	}
	return NewBoltStore(path, defaultTTL, logger)
}
