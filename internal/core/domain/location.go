package domain

// City is one entry from the city-list endpoint
type City struct {
	ID   int    `json:"id"`
	Name string `json:"city_name"`
}

// Zone is one entry from a city's zone-list endpoint
type Zone struct {
	ID   int    `json:"id"`
	Name string `json:"zone_name"`
}

// Area is one entry from a zone's area-list endpoint
type Area struct {
	ID   int    `json:"id"`
	Name string `json:"area_name"`
}

// CacheStats reports how much reference data is currently held in memory
type CacheStats struct {
	CitiesCached int  `json:"cities_cached"`
	ZonesCached  int  `json:"zones_cached"`
	AreasCached  int  `json:"areas_cached"`
	CitiesLoaded bool `json:"cities_loaded"`
}
