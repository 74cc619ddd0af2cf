package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/core/ports"
)

const tokenFlightKey = "token"

// TokenManager owns the client's token lifecycle. It hands out the held
// record while it is valid, renews it through the provider when it is
// missing or about to expire, and persists every obtained record so later
// processes can resume the session. Concurrent renewals collapse into a
// single grant request.
type TokenManager struct {
	provider ports.TokenProvider
	store    ports.TokenStore
	clientID string
	logger   zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current *domain.TokenRecord
	loaded  bool
	stale   bool
}

// NewTokenManager creates a token manager for the given client identity
func NewTokenManager(provider ports.TokenProvider, store ports.TokenStore, clientID string, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		provider: provider,
		store:    store,
		clientID: clientID,
		logger:   logger,
	}
}

// AccessToken returns a valid token record, renewing first if the held one
// is missing, expired, or inside the expiry grace window.
func (m *TokenManager) AccessToken(ctx context.Context) (*domain.TokenRecord, error) {
	m.mu.RLock()
	current, loaded, stale := m.current, m.loaded, m.stale
	m.mu.RUnlock()

	if loaded && !stale && current != nil && !current.IsExpired() {
		return current, nil
	}
	return m.renew(ctx)
}

// ForceRefresh marks the held record as rejected and obtains a fresh one.
// Called by the transport after the server returns 401 for a token the
// client still considered valid.
func (m *TokenManager) ForceRefresh(ctx context.Context) (*domain.TokenRecord, error) {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()

	// A renewal that started before the rejection may produce the very
	// token the server refused, so do not join it.
	m.group.Forget(tokenFlightKey)

	return m.renew(ctx)
}

// CurrentToken returns the held or persisted record without triggering a
// grant. Returns domain.ErrCacheMiss when no record exists.
func (m *TokenManager) CurrentToken(ctx context.Context) (*domain.TokenRecord, error) {
	m.mu.RLock()
	current, loaded := m.current, m.loaded
	m.mu.RUnlock()

	if !loaded {
		current = m.loadPersisted(ctx)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: no token for client %s", domain.ErrCacheMiss, m.clientID)
	}
	return current, nil
}

// renew funnels all callers through one in-flight grant. Waiters that
// arrive while a renewal is running share its result.
func (m *TokenManager) renew(ctx context.Context) (*domain.TokenRecord, error) {
	ch := m.group.DoChan(tokenFlightKey, func() (any, error) {
		m.mu.RLock()
		current, loaded, stale := m.current, m.loaded, m.stale
		m.mu.RUnlock()

		if !loaded {
			current = m.loadPersisted(ctx)
			m.mu.RLock()
			stale = m.stale
			m.mu.RUnlock()
		}

		if current != nil && !stale && !current.IsExpired() {
			return current, nil
		}

		record, err := m.obtain(ctx, current)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.current = record
		m.loaded = true
		m.stale = false
		m.mu.Unlock()

		return record, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*domain.TokenRecord), nil
	}
}

// obtain runs the refresh grant when a refresh token is available and
// falls back to the credential grant when it is not or when it fails. The
// obtained record is persisted before it is returned.
func (m *TokenManager) obtain(ctx context.Context, prior *domain.TokenRecord) (*domain.TokenRecord, error) {
	var record *domain.TokenRecord

	if prior != nil && prior.RefreshToken != "" {
		refreshed, err := m.provider.Refresh(ctx, prior.RefreshToken)
		if err != nil {
			m.logger.Warn().Err(err).Msg("token refresh failed, falling back to credential grant")
		} else {
			record = refreshed
		}
	}

	if record == nil {
		authenticated, err := m.provider.Authenticate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain token: %w", err)
		}
		record = authenticated
	}

	if err := m.store.SaveToken(ctx, m.clientID, record); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	m.logger.Debug().
		Time("expires_at", record.ExpiresAt).
		Msg("token renewed")

	return record, nil
}

// loadPersisted pulls the record saved by a previous process, if any. A
// failed read is treated as no record since the manager can always
// re-authenticate.
func (m *TokenManager) loadPersisted(ctx context.Context) *domain.TokenRecord {
	record, err := m.store.LoadToken(ctx, m.clientID)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			m.logger.Warn().Err(err).Msg("failed to load persisted token, re-authenticating")
		}
		record = nil
	}

	m.mu.Lock()
	m.current = record
	m.loaded = true
	m.mu.Unlock()

	return record
}
