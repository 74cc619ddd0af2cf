package httpinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

func newTestAPIClient(t *testing.T, handler http.Handler) (*APIClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &stubTokenSource{token: "test-token", refreshedTo: "test-token"}
	return NewAPIClient(server.URL, tokens, 5*time.Second, zerolog.Nop()), server
}

func TestAPIClient_CityList(t *testing.T) {
	var gotPath, gotAuth string
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":{"data":[{"id":1,"city_name":"Dhaka"},{"id":2,"city_name":"Chittagong"}]}}`)
	}))

	cities, err := client.CityList(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/aladdin/api/v1/city-list", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, cities, 2)
	assert.Equal(t, domain.City{ID: 1, Name: "Dhaka"}, cities[0])
	assert.Equal(t, domain.City{ID: 2, Name: "Chittagong"}, cities[1])
}

func TestAPIClient_ZoneList(t *testing.T) {
	var gotPath string
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"data":{"data":[{"id":7,"zone_name":"Uttara"}]}}`)
	}))

	zones, err := client.ZoneList(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "/aladdin/api/v1/cities/1/zone-list", gotPath)
	require.Len(t, zones, 1)
	assert.Equal(t, domain.Zone{ID: 7, Name: "Uttara"}, zones[0])
}

func TestAPIClient_AreaList(t *testing.T) {
	var gotPath string
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"data":{"data":[{"id":101,"area_name":"Sector 10"}]}}`)
	}))

	areas, err := client.AreaList(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "/aladdin/api/v1/zones/7/area-list", gotPath)
	require.Len(t, areas, 1)
	assert.Equal(t, domain.Area{ID: 101, Name: "Sector 10"}, areas[0])
}

func TestAPIClient_CreateStore(t *testing.T) {
	var gotMethod, gotContentType, gotRequestID string
	var gotBody domain.StoreCreateRequest
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"data":{"store":{"id":42,"name":"Gulshan Outlet","city_id":1,"zone_id":7,"area_id":101}}}`)
	}))

	request := &domain.StoreCreateRequest{
		Name:          "Gulshan Outlet",
		ContactName:   "Rahim Uddin",
		ContactNumber: "01712345678",
		Address:       "House 123, Road 4, Gulshan-1, Dhaka-1212",
		CityID:        1,
		ZoneID:        7,
		AreaID:        101,
	}

	store, err := client.CreateStore(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "Gulshan Outlet", gotBody.Name)
	assert.Equal(t, 1, gotBody.CityID)
	assert.Equal(t, 42, store.ID)
	assert.Equal(t, "Gulshan Outlet", store.Name)
}

func TestAPIClient_CreateStoreMalformedResponse(t *testing.T) {
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))

	store, err := client.CreateStore(context.Background(), &domain.StoreCreateRequest{Name: "x"})
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "invalid response structure")
}

func TestAPIClient_ListStores(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantQuery string
	}{
		{name: "with limit", limit: 5, wantQuery: "limit=5"},
		{name: "no limit fetches all", limit: 0, wantQuery: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				fmt.Fprint(w, `{"data":{"stores":[{"id":1,"name":"First"},{"id":2,"name":"Second"}]}}`)
			}))

			stores, err := client.ListStores(context.Background(), tt.limit)
			require.NoError(t, err)

			assert.Equal(t, tt.wantQuery, gotQuery)
			require.Len(t, stores, 2)
			assert.Equal(t, "First", stores[0].Name)
		})
	}
}

func TestAPIClient_UnauthorizedAfterRetry(t *testing.T) {
	var requests int
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.CityList(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, 2, requests, "transport retries exactly once before surfacing 401")
}

func TestAPIClient_ServerErrorCarriesRequestID(t *testing.T) {
	var gotRequestID string
	client, _ := newTestAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"upstream unavailable"}`)
	}))

	_, err := client.ListStores(context.Background(), 0)
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream unavailable")
	assert.Equal(t, gotRequestID, apiErr.RequestID)
}

func TestAPIClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"data":{"data":[]}}`)
	}))
	t.Cleanup(server.Close)

	tokens := &stubTokenSource{token: "test-token"}
	client := NewAPIClient(server.URL, tokens, 50*time.Millisecond, zerolog.Nop())

	_, err := client.CityList(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestTimeout)
}
