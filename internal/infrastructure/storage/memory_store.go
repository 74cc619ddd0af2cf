package storage

import (
	"context"
	"sync"
	"time"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

// MemoryStore is an in-memory cache and token store with the same TTL
// semantics as BoltStore. Selected by the ":memory:" path sentinel; used
// in tests and ephemeral runs where nothing should touch disk.
type MemoryStore struct {
	defaultTTL time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
	tokens  map[string]*domain.TokenRecord
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store. A non-positive
// defaultTTL selects DefaultTTL.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &MemoryStore{
		defaultTTL: defaultTTL,
		entries:    make(map[string]memoryEntry),
		tokens:     make(map[string]*domain.TokenRecord),
	}
}

// Close is a no-op; it exists so both store variants satisfy io.Closer
func (s *MemoryStore) Close() error {
	return nil
}

// Get returns the value for key, or domain.ErrCacheMiss when the key is
// absent or its TTL has elapsed
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || !time.Now().Before(e.expiresAt) {
		return nil, domain.ErrCacheMiss
	}

	return append([]byte(nil), e.value...), nil
}

// Set stores value under key, overwriting any previous entry
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Clear removes all cache entries. Token records are not affected.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	return nil
}

// CleanupExpired removes entries whose expiry has passed and returns the
// number removed
func (s *MemoryStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// SaveToken stores the token record for clientID, replacing any previous
// record wholesale
func (s *MemoryStore) SaveToken(ctx context.Context, clientID string, record *domain.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.tokens[clientID] = &copied
	return nil
}

// LoadToken returns the stored token record for clientID, or
// domain.ErrCacheMiss when none exists
func (s *MemoryStore) LoadToken(ctx context.Context, clientID string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.tokens[clientID]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	copied := *record
	return &copied, nil
}
