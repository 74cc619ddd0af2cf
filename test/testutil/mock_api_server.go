package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

// MockAPIServer provides a mock courier API for testing. It issues and
// validates its own tokens, serves a configurable location hierarchy, and
// records every request for assertions.
type MockAPIServer struct {
	*httptest.Server
	Config     MockAPIConfig
	RequestLog []RequestInfo
	mu         sync.Mutex

	tokenSeq      int
	accessTokens  map[string]bool
	refreshTokens map[string]bool
	stores        []domain.Store
	nextStoreID   int
}

// MockAPIConfig contains all configuration options for the mock server
type MockAPIConfig struct {
	// Credentials the issue-token endpoint accepts
	ClientID     string
	ClientSecret string
	Username     string
	Password     string

	// Token settings
	TokenLifetime     time.Duration
	EmitRefreshTokens bool

	// Location hierarchy served by the list endpoints
	Cities []domain.City
	Zones  map[int][]domain.Zone
	Areas  map[int][]domain.Area

	// Stores registered before the test starts
	Stores []domain.Store

	// Behavior settings
	ResponseDelay time.Duration

	// Custom handlers for specific endpoints
	CustomHandlers map[string]http.HandlerFunc
}

// RequestInfo captures information about each request for test assertions
type RequestInfo struct {
	Method      string
	Path        string
	Headers     http.Header
	Body        []byte
	Timestamp   time.Time
	QueryParams map[string][]string
}

// MockAPIServerBuilder provides a fluent interface for configuring the mock server
type MockAPIServerBuilder struct {
	t      *testing.T
	config MockAPIConfig
}

// NewMockAPIServer creates a new mock API server builder
func NewMockAPIServer(t *testing.T) *MockAPIServerBuilder {
	return &MockAPIServerBuilder{
		t: t,
		config: MockAPIConfig{
			ClientID:          "test-client",
			ClientSecret:      "test-secret",
			Username:          "merchant@example.com",
			Password:          "test-password",
			TokenLifetime:     time.Hour,
			EmitRefreshTokens: true,
			Zones:             make(map[int][]domain.Zone),
			Areas:             make(map[int][]domain.Area),
			CustomHandlers:    make(map[string]http.HandlerFunc),
		},
	}
}

// WithCredentials sets the credentials the token endpoint accepts
func (b *MockAPIServerBuilder) WithCredentials(clientID, clientSecret, username, password string) *MockAPIServerBuilder {
	b.config.ClientID = clientID
	b.config.ClientSecret = clientSecret
	b.config.Username = username
	b.config.Password = password
	return b
}

// WithTokenLifetime sets the expires_in reported on issued tokens
func (b *MockAPIServerBuilder) WithTokenLifetime(lifetime time.Duration) *MockAPIServerBuilder {
	b.config.TokenLifetime = lifetime
	return b
}

// WithoutRefreshTokens makes grants omit the refresh token
func (b *MockAPIServerBuilder) WithoutRefreshTokens() *MockAPIServerBuilder {
	b.config.EmitRefreshTokens = false
	return b
}

// WithCities sets the city list
func (b *MockAPIServerBuilder) WithCities(cities ...domain.City) *MockAPIServerBuilder {
	b.config.Cities = cities
	return b
}

// WithZones sets the zone list for a city
func (b *MockAPIServerBuilder) WithZones(cityID int, zones ...domain.Zone) *MockAPIServerBuilder {
	b.config.Zones[cityID] = zones
	return b
}

// WithAreas sets the area list for a zone
func (b *MockAPIServerBuilder) WithAreas(zoneID int, areas ...domain.Area) *MockAPIServerBuilder {
	b.config.Areas[zoneID] = areas
	return b
}

// WithStores seeds stores that exist before the test starts
func (b *MockAPIServerBuilder) WithStores(stores ...domain.Store) *MockAPIServerBuilder {
	b.config.Stores = stores
	return b
}

// WithResponseDelay adds artificial delay to responses
func (b *MockAPIServerBuilder) WithResponseDelay(delay time.Duration) *MockAPIServerBuilder {
	b.config.ResponseDelay = delay
	return b
}

// WithCustomHandler adds a custom handler for a specific path
func (b *MockAPIServerBuilder) WithCustomHandler(path string, handler http.HandlerFunc) *MockAPIServerBuilder {
	b.config.CustomHandlers[path] = handler
	return b
}

// Build creates the configured mock API server
func (b *MockAPIServerBuilder) Build() *MockAPIServer {
	mock := &MockAPIServer{
		Config:        b.config,
		RequestLog:    []RequestInfo{},
		accessTokens:  make(map[string]bool),
		refreshTokens: make(map[string]bool),
		stores:        append([]domain.Store(nil), b.config.Stores...),
		nextStoreID:   1000,
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.logRequest(r)

		if b.config.ResponseDelay > 0 {
			time.Sleep(b.config.ResponseDelay)
		}

		if handler, exists := b.config.CustomHandlers[r.URL.Path]; exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case "/aladdin/api/v1/issue-token":
			mock.handleIssueToken(w, r)

		case "/aladdin/api/v1/city-list":
			mock.handleCityList(w, r)

		case "/aladdin/api/v1/stores":
			mock.handleStores(w, r)

		default:
			if matched, cityID := matchListPath(r.URL.Path, "/aladdin/api/v1/cities/%d/zone-list"); matched {
				mock.handleZoneList(w, r, cityID)
			} else if matched, zoneID := matchListPath(r.URL.Path, "/aladdin/api/v1/zones/%d/area-list"); matched {
				mock.handleAreaList(w, r, zoneID)
			} else {
				http.NotFound(w, r)
			}
		}
	}))

	return mock
}

// RevokeAccessTokens invalidates every issued access token so the next
// authenticated request gets a 401. Refresh tokens stay valid, which lets
// tests drive the transparent renew-and-retry path.
func (m *MockAPIServer) RevokeAccessTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessTokens = make(map[string]bool)
}

// Helper methods for request handling

func (m *MockAPIServer) logRequest(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	m.RequestLog = append(m.RequestLog, RequestInfo{
		Method:      r.Method,
		Path:        r.URL.Path,
		Headers:     r.Header.Clone(),
		Body:        body,
		Timestamp:   time.Now(),
		QueryParams: r.URL.Query(),
	})
}

func (m *MockAPIServer) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var grant map[string]string
	if err := json.NewDecoder(r.Body).Decode(&grant); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if grant["client_id"] != m.Config.ClientID || grant["client_secret"] != m.Config.ClientSecret {
		writeJSONError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}

	switch grant["grant_type"] {
	case "password":
		if grant["username"] != m.Config.Username || grant["password"] != m.Config.Password {
			writeJSONError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}

	case "refresh_token":
		m.mu.Lock()
		valid := m.refreshTokens[grant["refresh_token"]]
		if valid {
			// Refresh tokens are single use
			delete(m.refreshTokens, grant["refresh_token"])
		}
		m.mu.Unlock()
		if !valid {
			writeJSONError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}

	default:
		writeJSONError(w, http.StatusBadRequest, "unsupported grant type")
		return
	}

	m.mu.Lock()
	m.tokenSeq++
	access := fmt.Sprintf("access-token-%d", m.tokenSeq)
	m.accessTokens[access] = true

	response := domain.TokenGrantResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(m.Config.TokenLifetime.Seconds()),
	}
	if m.Config.EmitRefreshTokens {
		refresh := fmt.Sprintf("refresh-token-%d", m.tokenSeq)
		m.refreshTokens[refresh] = true
		response.RefreshToken = refresh
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// requireAuth rejects requests without a currently valid bearer token
func (m *MockAPIServer) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	header := r.Header.Get("Authorization")

	m.mu.Lock()
	valid := false
	for token := range m.accessTokens {
		if header == "Bearer "+token {
			valid = true
			break
		}
	}
	m.mu.Unlock()

	if !valid {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	}
	return valid
}

func (m *MockAPIServer) handleCityList(w http.ResponseWriter, r *http.Request) {
	if !m.requireAuth(w, r) {
		return
	}
	writeListEnvelope(w, m.Config.Cities)
}

func (m *MockAPIServer) handleZoneList(w http.ResponseWriter, r *http.Request, cityID int) {
	if !m.requireAuth(w, r) {
		return
	}
	zones := m.Config.Zones[cityID]
	if zones == nil {
		zones = []domain.Zone{}
	}
	writeListEnvelope(w, zones)
}

func (m *MockAPIServer) handleAreaList(w http.ResponseWriter, r *http.Request, zoneID int) {
	if !m.requireAuth(w, r) {
		return
	}
	areas := m.Config.Areas[zoneID]
	if areas == nil {
		areas = []domain.Area{}
	}
	writeListEnvelope(w, areas)
}

func (m *MockAPIServer) handleStores(w http.ResponseWriter, r *http.Request) {
	if !m.requireAuth(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		m.mu.Lock()
		stores := append([]domain.Store(nil), m.stores...)
		m.mu.Unlock()

		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			if limit < len(stores) {
				stores = stores[:limit]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"stores": stores},
		})

	case http.MethodPost:
		var request domain.StoreCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		m.mu.Lock()
		m.nextStoreID++
		store := domain.Store{
			ID:            m.nextStoreID,
			Name:          request.Name,
			ContactName:   request.ContactName,
			ContactNumber: request.ContactNumber,
			Address:       request.Address,
			CityID:        request.CityID,
			ZoneID:        request.ZoneID,
			AreaID:        request.AreaID,
		}
		m.stores = append(m.stores, store)
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"store": store},
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// matchListPath matches paths like /aladdin/api/v1/cities/42/zone-list and
// extracts the numeric parent ID
func matchListPath(path, pattern string) (bool, int) {
	var id int
	if n, err := fmt.Sscanf(path, pattern, &id); err == nil && n == 1 {
		return true, id
	}
	return false, 0
}

func writeListEnvelope[T any](w http.ResponseWriter, items []T) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{"data": items},
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"message": message})
}

// Utility methods for test assertions

// GetRequestCount returns the number of requests made to a specific path
func (m *MockAPIServer) GetRequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, req := range m.RequestLog {
		if req.Path == path {
			count++
		}
	}
	return count
}

// GetLastRequest returns the most recent request to a specific path
func (m *MockAPIServer) GetLastRequest(path string) *RequestInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.RequestLog) - 1; i >= 0; i-- {
		if m.RequestLog[i].Path == path {
			req := m.RequestLog[i]
			return &req
		}
	}
	return nil
}

// GrantCount returns the number of tokens issued so far
func (m *MockAPIServer) GrantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenSeq
}

// ClearRequestLog clears the request log
func (m *MockAPIServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestLog = []RequestInfo{}
}
