package ports

import (
	"context"
	"time"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

// CacheStore defines a durable key/value store with per-entry TTLs.
// Values are opaque JSON documents. An entry whose TTL has elapsed is
// treated as absent even before it has been physically removed.
type CacheStore interface {
	// Get returns the value for key, or domain.ErrCacheMiss when the key
	// was never set or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous entry.
	// A non-positive ttl selects the store's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// CleanupExpired physically removes entries whose TTL has elapsed and
	// returns how many were removed. Get correctness never depends on it.
	CleanupExpired(ctx context.Context) (int, error)
}

// TokenStore persists one token record per client identity. Saves replace
// the whole record; there is no partial update or delete path.
type TokenStore interface {
	SaveToken(ctx context.Context, clientID string, record *domain.TokenRecord) error

	// LoadToken returns the persisted record for clientID, or
	// domain.ErrCacheMiss when none exists.
	LoadToken(ctx context.Context, clientID string) (*domain.TokenRecord, error)
}

// TokenProvider performs token grants against the issue-token endpoint
type TokenProvider interface {
	// Authenticate runs the password grant with the configured credentials.
	Authenticate(ctx context.Context) (*domain.TokenRecord, error)

	// Refresh runs the refresh_token grant.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenRecord, error)
}

// TokenSource supplies valid access tokens to outbound requests
type TokenSource interface {
	// AccessToken returns the current token, obtaining or refreshing one
	// first if the held record is missing or expired.
	AccessToken(ctx context.Context) (*domain.TokenRecord, error)

	// ForceRefresh discards the held record and obtains a fresh one, used
	// after the server rejects a token the client still considered valid.
	ForceRefresh(ctx context.Context) (*domain.TokenRecord, error)
}

// LocationGateway fetches reference data from the courier API
type LocationGateway interface {
	CityList(ctx context.Context) ([]domain.City, error)
	ZoneList(ctx context.Context, cityID int) ([]domain.Zone, error)
	AreaList(ctx context.Context, zoneID int) ([]domain.Area, error)
}

// StoreGateway performs store operations against the courier API
type StoreGateway interface {
	CreateStore(ctx context.Context, request *domain.StoreCreateRequest) (*domain.Store, error)

	// ListStores returns up to limit stores; limit <= 0 returns all.
	ListStores(ctx context.Context, limit int) ([]domain.Store, error)
}
