package integration_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/pkg/pathao"
	"github.com/parceldesk/pathao-go/test/testutil"
)

const (
	issueTokenPath = "/aladdin/api/v1/issue-token"
	cityListPath   = "/aladdin/api/v1/city-list"
	storesPath     = "/aladdin/api/v1/stores"
)

// newLocationServer builds a mock API with a small Dhaka hierarchy
func newLocationServer(t *testing.T) *testutil.MockAPIServer {
	return testutil.NewMockAPIServer(t).
		WithCities(
			domain.City{ID: 1, Name: "Dhaka"},
			domain.City{ID: 2, Name: "Chittagong"},
		).
		WithZones(1,
			domain.Zone{ID: 7, Name: "Uttara"},
			domain.Zone{ID: 8, Name: "Banani"},
		).
		WithAreas(7,
			domain.Area{ID: 101, Name: "Sector 10"},
			domain.Area{ID: 102, Name: "Sector 12"},
		).
		Build()
}

// newTestConfig points a client at the mock server with its default credentials
func newTestConfig(serverURL, cachePath string) *pathao.Config {
	cfg := pathao.DefaultConfig()
	cfg.ClientID = "test-client"
	cfg.ClientSecret = "test-secret"
	cfg.Username = "merchant@example.com"
	cfg.Password = "test-password"
	cfg.BaseURL = serverURL
	cfg.CachePath = cachePath
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestStoreCreationFlow(t *testing.T) {
	server := newLocationServer(t)
	defer server.Close()

	client, err := pathao.New(newTestConfig(server.URL, pathao.MemoryCachePath))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	store, err := client.CreateStore(ctx, &pathao.StoreCreate{
		Name:          "Uttara Outlet",
		ContactName:   "Rahim Uddin",
		ContactNumber: "01712345678",
		Address:       "House 12, Road 4, Sector 10, Uttara, Dhaka",
		CityName:      "dhaka",
		ZoneName:      "UTTARA",
		AreaName:      "Sector 10",
	})
	require.NoError(t, err)

	assert.Equal(t, "Uttara Outlet", store.Name)
	assert.Equal(t, 1, store.CityID)
	assert.Equal(t, 7, store.ZoneID)
	assert.Equal(t, 101, store.AreaID)

	// The submitted payload carries resolved IDs, not names
	lastCreate := server.GetLastRequest(storesPath)
	require.NotNil(t, lastCreate)
	var submitted map[string]any
	require.NoError(t, json.Unmarshal(lastCreate.Body, &submitted))
	assert.Equal(t, float64(1), submitted["city_id"])
	assert.Equal(t, float64(7), submitted["zone_id"])
	assert.Equal(t, float64(101), submitted["area_id"])
	assert.NotContains(t, submitted, "city_name")

	// The new store shows up in listings
	stores, err := client.ListStores(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, store.ID, stores[0].ID)

	// One credential grant and one city download served the whole flow
	assert.Equal(t, 1, server.GrantCount())
	assert.Equal(t, 1, server.GetRequestCount(cityListPath))
}

func TestUnknownCityRejectedBeforeSubmission(t *testing.T) {
	server := newLocationServer(t)
	defer server.Close()

	client, err := pathao.New(newTestConfig(server.URL, pathao.MemoryCachePath))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.CreateStore(context.Background(), &pathao.StoreCreate{
		Name:          "Atlantis Outlet",
		ContactName:   "Rahim Uddin",
		ContactNumber: "01712345678",
		Address:       "House 12, Road 4, Sector 10, Uttara, Dhaka",
		CityName:      "Atlantis",
		ZoneName:      "Uttara",
		AreaName:      "Sector 10",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, pathao.ErrNotFound)
	assert.Equal(t, 0, server.GetRequestCount(storesPath))
}

func TestExpiredTokenIsRenewedTransparently(t *testing.T) {
	server := newLocationServer(t)
	defer server.Close()

	client, err := pathao.New(newTestConfig(server.URL, pathao.MemoryCachePath))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	_, err = client.ListStores(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, server.GrantCount())

	// The server stops honoring the issued token; the next call must renew
	// and retry without surfacing an error
	server.RevokeAccessTokens()

	_, err = client.ListStores(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, server.GrantCount())

	// Renewal went through the refresh grant, not a fresh credential grant
	lastGrant := server.GetLastRequest(issueTokenPath)
	require.NotNil(t, lastGrant)
	var grant map[string]string
	require.NoError(t, json.Unmarshal(lastGrant.Body, &grant))
	assert.Equal(t, "refresh_token", grant["grant_type"])
}

func TestReferenceDataSurvivesRestart(t *testing.T) {
	server := newLocationServer(t)
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := pathao.New(newTestConfig(server.URL, cachePath))
	require.NoError(t, err)

	cities, err := first.Cities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	require.NoError(t, first.Close())

	// A new process reading the same cache file needs neither a grant nor
	// a city download
	second, err := pathao.New(newTestConfig(server.URL, cachePath))
	require.NoError(t, err)
	defer second.Close()

	cities, err = second.Cities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 2)

	assert.Equal(t, 1, server.GetRequestCount(cityListPath))
	assert.Equal(t, 1, server.GrantCount())
}

func TestLoginPersistsAcrossClients(t *testing.T) {
	server := newLocationServer(t)
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := pathao.New(newTestConfig(server.URL, cachePath))
	require.NoError(t, err)

	record, err := first.Login(ctx)
	require.NoError(t, err)
	assert.False(t, record.IsExpired())
	require.NoError(t, first.Close())

	second, err := pathao.New(newTestConfig(server.URL, cachePath))
	require.NoError(t, err)
	defer second.Close()

	held, err := second.TokenStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, record.AccessToken, held.AccessToken)
	assert.Equal(t, 1, server.GrantCount())
}
