// Package pathao is the public surface of the courier client. It
// re-exports the assembled client, its configuration, and the domain
// types callers exchange with it, so external modules never import
// internal packages.
package pathao

import (
	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/client"
	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/infrastructure/config"
	"github.com/parceldesk/pathao-go/internal/infrastructure/storage"
)

// Client handles authentication, caching, and store management
type Client = client.Client

// Option customizes client construction
type Option = client.Option

// Config carries credentials, the API host, and cache behavior
type Config = config.Config

// Re-export the domain types exchanged through the client
type (
	City        = domain.City
	Zone        = domain.Zone
	Area        = domain.Area
	Store       = domain.Store
	StoreCreate = domain.StoreCreate
	TokenRecord = domain.TokenRecord
	CacheStats  = domain.CacheStats
	APIError    = domain.APIError
)

// Re-export the error classes callers branch on
var (
	ErrCacheMiss      = domain.ErrCacheMiss
	ErrAuthentication = domain.ErrAuthentication
	ErrRequestTimeout = domain.ErrRequestTimeout
	ErrNotFound       = domain.ErrNotFound
	ErrValidation     = domain.ErrValidation
	ErrStorage        = domain.ErrStorage
)

const (
	// SandboxBaseURL is the courier sandbox host
	SandboxBaseURL = config.SandboxBaseURL

	// ProductionBaseURL is the live courier host
	ProductionBaseURL = config.ProductionBaseURL

	// MemoryCachePath selects the in-memory cache store
	MemoryCachePath = storage.MemoryPath
)

// New validates the config and builds a ready-to-use client
func New(cfg *Config, opts ...Option) (*Client, error) {
	return client.New(cfg, opts...)
}

// WithLogger replaces the client's default logger
func WithLogger(logger zerolog.Logger) Option {
	return client.WithLogger(logger)
}

// DefaultConfig returns a config pointed at the sandbox with standard
// cache behavior; credentials must be filled in by the caller
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig builds the effective config from defaults, the config file
// at path (or the default location when empty), and PATHAO_* environment
// variables
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
