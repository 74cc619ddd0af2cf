package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/core/ports"
)

const listCacheTTL = 60 * time.Second

// StoresService manages merchant pickup stores. Store creation takes
// human-readable location names and resolves them to courier IDs through
// the reference cache before submitting, so callers never deal with raw
// city, zone, or area identifiers.
type StoresService struct {
	gateway ports.StoreGateway
	refs    *ReferenceCache
	logger  zerolog.Logger

	results *ttlcache.Cache[int, []domain.Store]
}

// NewStoresService creates a stores service. Listings are cached briefly
// so dashboards polling the store list do not hammer the API.
func NewStoresService(gateway ports.StoreGateway, refs *ReferenceCache, logger zerolog.Logger) *StoresService {
	results := ttlcache.New[int, []domain.Store](
		ttlcache.WithTTL[int, []domain.Store](listCacheTTL),
		ttlcache.WithDisableTouchOnHit[int, []domain.Store](),
	)
	go results.Start()

	return &StoresService{
		gateway: gateway,
		refs:    refs,
		logger:  logger,
		results: results,
	}
}

// CreateStore validates the input, resolves its location names to courier
// IDs, and submits the store. A name that cannot be resolved after its
// level has been prefetched yields ErrNotFound; resolution never refetches.
func (s *StoresService) CreateStore(ctx context.Context, input *domain.StoreCreate) (*domain.Store, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := s.refs.PrefetchCities(ctx); err != nil {
		return nil, err
	}
	cityID, ok := s.refs.CityID(input.CityName)
	if !ok {
		return nil, fmt.Errorf("%w: city '%s' does not exist", domain.ErrNotFound, input.CityName)
	}

	if err := s.refs.PrefetchZones(ctx, cityID); err != nil {
		return nil, err
	}
	zoneID, ok := s.refs.ZoneID(cityID, input.ZoneName)
	if !ok {
		return nil, fmt.Errorf("%w: zone '%s' does not exist in city '%s'", domain.ErrNotFound, input.ZoneName, input.CityName)
	}

	if err := s.refs.PrefetchAreas(ctx, zoneID); err != nil {
		return nil, err
	}
	areaID, ok := s.refs.AreaID(zoneID, input.AreaName)
	if !ok {
		return nil, fmt.Errorf("%w: area '%s' does not exist in zone '%s'", domain.ErrNotFound, input.AreaName, input.ZoneName)
	}

	request := &domain.StoreCreateRequest{
		Name:             input.Name,
		ContactName:      input.ContactName,
		ContactNumber:    input.ContactNumber,
		SecondaryContact: input.SecondaryContact,
		OTPNumber:        input.OTPNumber,
		Address:          input.Address,
		CityID:           cityID,
		ZoneID:           zoneID,
		AreaID:           areaID,
	}

	store, err := s.gateway.CreateStore(ctx, request)
	if err != nil {
		return nil, err
	}

	// Cached listings no longer reflect reality.
	s.results.DeleteAll()

	s.logger.Info().
		Int("store_id", store.ID).
		Str("name", store.Name).
		Str("city", input.CityName).
		Msg("store created")

	return store, nil
}

// ListStores returns up to limit stores, serving repeated calls from a
// short-lived cache. A non-positive limit returns all stores.
func (s *StoresService) ListStores(ctx context.Context, limit int) ([]domain.Store, error) {
	if limit < 0 {
		limit = 0
	}

	if item := s.results.Get(limit); item != nil {
		return item.Value(), nil
	}

	stores, err := s.gateway.ListStores(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.results.Set(limit, stores, ttlcache.DefaultTTL)
	return stores, nil
}

// CacheStats reports the state of the reference data indexes
func (s *StoresService) CacheStats() domain.CacheStats {
	return s.refs.Stats()
}

// ResetReferenceData drops all cached reference data and listings
func (s *StoresService) ResetReferenceData(ctx context.Context) error {
	s.results.DeleteAll()
	return s.refs.Reset(ctx)
}

// Close stops the listing cache's expiration loop
func (s *StoresService) Close() {
	s.results.Stop()
}
