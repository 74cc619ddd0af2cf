package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/core/ports"
)

const (
	cityBulkKey    = "bulk:cities"
	zoneBulkKeyFmt = "bulk:zones:%d"
	areaBulkKeyFmt = "bulk:areas:%d"
)

// ReferenceCache keeps courier location reference data close at hand. Each
// level is fetched in bulk exactly once per process: the full city list,
// then zones per city and areas per zone on demand. Bulk documents are
// persisted through the cache store so later processes skip the API
// entirely, and name lookups run against in-memory indexes built from
// those documents.
//
// Lookups never trigger a fetch. A name that is absent after its level has
// been prefetched simply does not exist upstream.
type ReferenceCache struct {
	gateway ports.LocationGateway
	store   ports.CacheStore
	ttl     time.Duration
	logger  zerolog.Logger

	group singleflight.Group

	mu           sync.RWMutex
	cityIDs      map[string]int
	zoneIDs      map[int]map[string]int
	areaIDs      map[int]map[string]int
	cities       []domain.City
	zones        map[int][]domain.Zone
	areas        map[int][]domain.Area
	citiesLoaded bool
}

// NewReferenceCache creates a reference cache backed by the given gateway
// and store. A non-positive ttl lets the store apply its default.
func NewReferenceCache(gateway ports.LocationGateway, store ports.CacheStore, ttl time.Duration, logger zerolog.Logger) *ReferenceCache {
	return &ReferenceCache{
		gateway: gateway,
		store:   store,
		ttl:     ttl,
		logger:  logger,
		cityIDs: make(map[string]int),
		zoneIDs: make(map[int]map[string]int),
		areaIDs: make(map[int]map[string]int),
		zones:   make(map[int][]domain.Zone),
		areas:   make(map[int][]domain.Area),
	}
}

// PrefetchCities loads the city index, hitting the API only when the
// durable cache has no usable document. Concurrent calls share one fetch.
func (c *ReferenceCache) PrefetchCities(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.citiesLoaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	return c.flight(ctx, cityBulkKey, func() error {
		c.mu.RLock()
		loaded := c.citiesLoaded
		c.mu.RUnlock()
		if loaded {
			return nil
		}

		cities, err := c.loadCities(ctx)
		if err != nil {
			return err
		}

		index := make(map[string]int, len(cities))
		for _, city := range cities {
			index[strings.ToUpper(city.Name)] = city.ID
		}

		c.mu.Lock()
		c.cityIDs = index
		c.cities = cities
		c.citiesLoaded = true
		c.mu.Unlock()

		return nil
	})
}

// PrefetchZones loads the zone index for one city
func (c *ReferenceCache) PrefetchZones(ctx context.Context, cityID int) error {
	c.mu.RLock()
	_, loaded := c.zoneIDs[cityID]
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	key := fmt.Sprintf(zoneBulkKeyFmt, cityID)
	return c.flight(ctx, key, func() error {
		c.mu.RLock()
		_, loaded := c.zoneIDs[cityID]
		c.mu.RUnlock()
		if loaded {
			return nil
		}

		zones, err := c.loadZones(ctx, cityID, key)
		if err != nil {
			return err
		}

		index := make(map[string]int, len(zones))
		for _, zone := range zones {
			index[strings.ToUpper(zone.Name)] = zone.ID
		}

		c.mu.Lock()
		c.zoneIDs[cityID] = index
		c.zones[cityID] = zones
		c.mu.Unlock()

		return nil
	})
}

// PrefetchAreas loads the area index for one zone
func (c *ReferenceCache) PrefetchAreas(ctx context.Context, zoneID int) error {
	c.mu.RLock()
	_, loaded := c.areaIDs[zoneID]
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	key := fmt.Sprintf(areaBulkKeyFmt, zoneID)
	return c.flight(ctx, key, func() error {
		c.mu.RLock()
		_, loaded := c.areaIDs[zoneID]
		c.mu.RUnlock()
		if loaded {
			return nil
		}

		areas, err := c.loadAreas(ctx, zoneID, key)
		if err != nil {
			return err
		}

		index := make(map[string]int, len(areas))
		for _, area := range areas {
			index[strings.ToUpper(area.Name)] = area.ID
		}

		c.mu.Lock()
		c.areaIDs[zoneID] = index
		c.areas[zoneID] = areas
		c.mu.Unlock()

		return nil
	})
}

// Cities returns the full city list in API order, prefetching it first
// when needed. The returned slice is the caller's to keep.
func (c *ReferenceCache) Cities(ctx context.Context) ([]domain.City, error) {
	if err := c.PrefetchCities(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.City(nil), c.cities...), nil
}

// Zones returns the zone list for a city, prefetching it first when needed
func (c *ReferenceCache) Zones(ctx context.Context, cityID int) ([]domain.Zone, error) {
	if err := c.PrefetchZones(ctx, cityID); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Zone(nil), c.zones[cityID]...), nil
}

// Areas returns the area list for a zone, prefetching it first when needed
func (c *ReferenceCache) Areas(ctx context.Context, zoneID int) ([]domain.Area, error) {
	if err := c.PrefetchAreas(ctx, zoneID); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Area(nil), c.areas[zoneID]...), nil
}

// CityID resolves a city name case-insensitively. The boolean is false
// when the name is unknown or cities have not been prefetched.
func (c *ReferenceCache) CityID(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.cityIDs[strings.ToUpper(name)]
	return id, ok
}

// ZoneID resolves a zone name within a city
func (c *ReferenceCache) ZoneID(cityID int, name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.zoneIDs[cityID][strings.ToUpper(name)]
	return id, ok
}

// AreaID resolves an area name within a zone
func (c *ReferenceCache) AreaID(zoneID int, name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.areaIDs[zoneID][strings.ToUpper(name)]
	return id, ok
}

// Stats reports how much reference data the in-memory indexes hold
func (c *ReferenceCache) Stats() domain.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := domain.CacheStats{
		CitiesCached: len(c.cityIDs),
		CitiesLoaded: c.citiesLoaded,
	}
	for _, zones := range c.zoneIDs {
		stats.ZonesCached += len(zones)
	}
	for _, areas := range c.areaIDs {
		stats.AreasCached += len(areas)
	}
	return stats
}

// Reset drops the in-memory indexes and clears the durable cache so the
// next prefetch goes back to the API
func (c *ReferenceCache) Reset(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.cityIDs = make(map[string]int)
	c.zoneIDs = make(map[int]map[string]int)
	c.areaIDs = make(map[int]map[string]int)
	c.cities = nil
	c.zones = make(map[int][]domain.Zone)
	c.areas = make(map[int][]domain.Area)
	c.citiesLoaded = false
	c.mu.Unlock()

	return nil
}

// flight collapses concurrent prefetches of the same key into one load.
// Waiters honor their own context while sharing the result.
func (c *ReferenceCache) flight(ctx context.Context, key string, fn func() error) error {
	ch := c.group.DoChan(key, func() (any, error) {
		return nil, fn()
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-ch:
		return result.Err
	}
}

// loadCities returns the bulk city document, preferring the durable cache.
// An unreadable store degrades to an API fetch; a failed write does not.
func (c *ReferenceCache) loadCities(ctx context.Context) ([]domain.City, error) {
	data, err := c.store.Get(ctx, cityBulkKey)
	if err == nil {
		var cities []domain.City
		if unmarshalErr := json.Unmarshal(data, &cities); unmarshalErr == nil {
			c.logger.Debug().Int("count", len(cities)).Msg("city list served from cache")
			return cities, nil
		}
		c.logger.Warn().Str("key", cityBulkKey).Msg("cached city document is malformed, refetching")
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("key", cityBulkKey).Msg("cache read failed, fetching from api")
	}

	cities, err := c.gateway.CityList(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(cities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal city list: %w", err)
	}
	if err := c.store.Set(ctx, cityBulkKey, doc, c.ttl); err != nil {
		return nil, err
	}

	c.logger.Info().Int("count", len(cities)).Msg("city list fetched and cached")
	return cities, nil
}

func (c *ReferenceCache) loadZones(ctx context.Context, cityID int, key string) ([]domain.Zone, error) {
	data, err := c.store.Get(ctx, key)
	if err == nil {
		var zones []domain.Zone
		if unmarshalErr := json.Unmarshal(data, &zones); unmarshalErr == nil {
			return zones, nil
		}
		c.logger.Warn().Str("key", key).Msg("cached zone document is malformed, refetching")
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, fetching from api")
	}

	zones, err := c.gateway.ZoneList(ctx, cityID)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(zones)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal zone list: %w", err)
	}
	if err := c.store.Set(ctx, key, doc, c.ttl); err != nil {
		return nil, err
	}

	c.logger.Info().Int("city_id", cityID).Int("count", len(zones)).Msg("zone list fetched and cached")
	return zones, nil
}

func (c *ReferenceCache) loadAreas(ctx context.Context, zoneID int, key string) ([]domain.Area, error) {
	data, err := c.store.Get(ctx, key)
	if err == nil {
		var areas []domain.Area
		if unmarshalErr := json.Unmarshal(data, &areas); unmarshalErr == nil {
			return areas, nil
		}
		c.logger.Warn().Str("key", key).Msg("cached area document is malformed, refetching")
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, fetching from api")
	}

	areas, err := c.gateway.AreaList(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(areas)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal area list: %w", err)
	}
	if err := c.store.Set(ctx, key, doc, c.ttl); err != nil {
		return nil, err
	}

	c.logger.Info().Int("zone_id", zoneID).Int("count", len(areas)).Msg("area list fetched and cached")
	return areas, nil
}
