package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

// DefaultTTL is applied to cache entries stored without an explicit TTL
const DefaultTTL = 7 * 24 * time.Hour

const (
	cacheBucket = "cache_entries"
	tokenBucket = "tokens"
)

// entry is the stored envelope for a cache row. ExpiresAt travels with the
// value so expiry survives process restarts.
type entry struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// BoltStore is a file-backed cache and token store on a single bbolt
// database. Cache entries and token records live in separate buckets, so
// clearing reference data never drops credentials.
type BoltStore struct {
	db         *bbolt.DB
	defaultTTL time.Duration
	logger     zerolog.Logger
}

// NewBoltStore opens (or creates) the database at path. A non-positive
// defaultTTL selects DefaultTTL.
func NewBoltStore(path string, defaultTTL time.Duration, logger zerolog.Logger) (*BoltStore, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("%w: create cache directory: %v", domain.ErrStorage, err)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open cache db: %v", domain.ErrStorage, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(cacheBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(tokenBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create buckets: %v", domain.ErrStorage, err)
	}

	logger.Debug().Str("path", path).Dur("default_ttl", defaultTTL).Msg("cache database opened")

	return &BoltStore{
		db:         db,
		defaultTTL: defaultTTL,
		logger:     logger,
	}, nil
}

// Close releases the database file handle
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value for key, or domain.ErrCacheMiss when the key is
// absent or its TTL has elapsed. Expired rows are invisible even before
// CleanupExpired removes them.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(cacheBucket)).Get([]byte(key))
		if data == nil {
			return domain.ErrCacheMiss
		}

		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("%w: decode cache entry %q: %v", domain.ErrStorage, key, err)
		}

		if !time.Now().Before(e.ExpiresAt) {
			return domain.ErrCacheMiss
		}

		value = append([]byte(nil), e.Value...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("key", key).Msg("cache hit")
	return value, nil
}

// Set stores value under key with the given TTL, overwriting any previous
// entry. The write is atomic; concurrent writers to the same key serialize
// and the last one wins.
func (s *BoltStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now()
	data, err := json.Marshal(entry{
		Value:     json.RawMessage(value),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("%w: encode cache entry %q: %v", domain.ErrStorage, key, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(cacheBucket)).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: write cache entry %q: %v", domain.ErrStorage, key, err)
	}

	s.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("cache set")
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(cacheBucket)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: delete cache entry %q: %v", domain.ErrStorage, key, err)
	}

	s.logger.Debug().Str("key", key).Msg("cache delete")
	return nil
}

// Clear removes all cache entries. Token records are not affected.
func (s *BoltStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(cacheBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(cacheBucket))
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: clear cache: %v", domain.ErrStorage, err)
	}

	s.logger.Info().Msg("cache cleared")
	return nil
}

// CleanupExpired removes rows whose expiry has passed and returns the
// number removed. Purely a maintenance operation; Get already treats
// expired rows as absent.
func (s *BoltStore) CleanupExpired(ctx context.Context) (int, error) {
	removed := 0
	now := time.Now()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(cacheBucket))

		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				// Undecodable rows are purged along with expired ones.
				expired = append(expired, append([]byte(nil), k...))
				return nil
			}
			if !now.Before(e.ExpiresAt) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}

		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup expired entries: %v", domain.ErrStorage, err)
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("expired cache entries removed")
	}
	return removed, nil
}

// SaveToken persists the token record for clientID, replacing any
// previous record wholesale
func (s *BoltStore) SaveToken(ctx context.Context, clientID string, record *domain.TokenRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode token record: %v", domain.ErrStorage, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(tokenBucket)).Put([]byte(clientID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: write token record: %v", domain.ErrStorage, err)
	}

	s.logger.Debug().Str("client_id", clientID).Time("expires_at", record.ExpiresAt).Msg("token record saved")
	return nil
}

// LoadToken returns the persisted token record for clientID, or
// domain.ErrCacheMiss when none exists. Expired records are returned
// as-is; the caller decides whether they are still useful.
func (s *BoltStore) LoadToken(ctx context.Context, clientID string) (*domain.TokenRecord, error) {
	var record *domain.TokenRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(tokenBucket)).Get([]byte(clientID))
		if data == nil {
			return domain.ErrCacheMiss
		}

		var r domain.TokenRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("%w: decode token record: %v", domain.ErrStorage, err)
		}
		record = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}
