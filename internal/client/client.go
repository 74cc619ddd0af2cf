package client

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/application/services"
	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/infrastructure/auth"
	"github.com/parceldesk/pathao-go/internal/infrastructure/config"
	httpinfra "github.com/parceldesk/pathao-go/internal/infrastructure/http"
	"github.com/parceldesk/pathao-go/internal/infrastructure/logging"
	"github.com/parceldesk/pathao-go/internal/infrastructure/storage"
)

// Client is the assembled courier API client: authenticated transport,
// durable reference data cache, and store management behind one handle.
// A Client is safe for concurrent use and should be closed when done so
// the cache database is released.
type Client struct {
	cfg    *config.Config
	logger zerolog.Logger

	store  storage.Store
	tokens *services.TokenManager
	api    *httpinfra.APIClient
	refs   *services.ReferenceCache
	stores *services.StoresService
}

// Option customizes client construction
type Option func(*Client)

// WithLogger replaces the logger built from the config's debug flag
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New validates the config and wires up a ready-to-use client
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if errs := config.NewValidator().ValidateAll(cfg); len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for field := range errs {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s: %v", field, errs[field]))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(parts, "; "))
	}

	c := &Client{
		cfg:    cfg,
		logger: logging.New(cfg.Debug),
	}
	for _, opt := range opts {
		opt(c)
	}

	store, err := storage.Open(cfg.CachePath, cfg.CacheTTL, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	c.store = store

	credentials := domain.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Password:     cfg.Password,
	}

	provider := auth.NewHTTPTokenProvider(cfg.BaseURL, credentials, c.logger)
	c.tokens = services.NewTokenManager(provider, store, cfg.ClientID, c.logger)
	c.api = httpinfra.NewAPIClient(cfg.BaseURL, c.tokens, cfg.Timeout, c.logger)
	c.refs = services.NewReferenceCache(c.api, store, cfg.CacheTTL, c.logger)
	c.stores = services.NewStoresService(c.api, c.refs, c.logger)

	return c, nil
}

// Close releases the cache database and stops background cache upkeep
func (c *Client) Close() error {
	c.stores.Close()
	return c.store.Close()
}

// Login obtains a token immediately instead of waiting for the first API
// call, surfacing credential problems early
func (c *Client) Login(ctx context.Context) (*domain.TokenRecord, error) {
	return c.tokens.AccessToken(ctx)
}

// TokenStatus reports the held or persisted token without obtaining one
func (c *Client) TokenStatus(ctx context.Context) (*domain.TokenRecord, error) {
	return c.tokens.CurrentToken(ctx)
}

// CreateStore validates, resolves location names to IDs, and creates a
// merchant pickup store
func (c *Client) CreateStore(ctx context.Context, input *domain.StoreCreate) (*domain.Store, error) {
	return c.stores.CreateStore(ctx, input)
}

// ListStores returns up to limit stores; limit <= 0 returns all
func (c *Client) ListStores(ctx context.Context, limit int) ([]domain.Store, error) {
	return c.stores.ListStores(ctx, limit)
}

// Cities returns the courier's city list, cached after the first call
func (c *Client) Cities(ctx context.Context) ([]domain.City, error) {
	return c.refs.Cities(ctx)
}

// Zones returns the zones of a city, cached after the first call
func (c *Client) Zones(ctx context.Context, cityID int) ([]domain.Zone, error) {
	return c.refs.Zones(ctx, cityID)
}

// Areas returns the areas of a zone, cached after the first call
func (c *Client) Areas(ctx context.Context, zoneID int) ([]domain.Area, error) {
	return c.refs.Areas(ctx, zoneID)
}

// CacheStats reports how much reference data is currently indexed
func (c *Client) CacheStats() domain.CacheStats {
	return c.stores.CacheStats()
}

// CleanupCache physically removes expired cache entries and returns how
// many were removed
func (c *Client) CleanupCache(ctx context.Context) (int, error) {
	return c.store.CleanupExpired(ctx)
}

// ClearCache drops all cached reference data, durable and in-memory.
// Persisted tokens are not touched.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.stores.ResetReferenceData(ctx)
}
