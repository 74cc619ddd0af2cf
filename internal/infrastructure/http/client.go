package httpinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/core/ports"
)

const (
	cityListPath = "/aladdin/api/v1/city-list"
	zoneListPath = "/aladdin/api/v1/cities/%d/zone-list"
	areaListPath = "/aladdin/api/v1/zones/%d/area-list"
	storesPath   = "/aladdin/api/v1/stores"
)

// APIClient talks to the courier API over the authenticated transport. It
// implements the location and store gateways consumed by the services.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAPIClient creates a client for the given API host. Every request
// carries a bearer token from tokens and is bounded by timeout.
func NewAPIClient(baseURL string, tokens ports.TokenSource, timeout time.Duration, logger zerolog.Logger) *APIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: NewAuthRoundTripper(tokens, logger),
		},
		logger: logger,
	}
}

// CityList fetches the complete list of cities
func (c *APIClient) CityList(ctx context.Context) ([]domain.City, error) {
	var envelope struct {
		Data struct {
			Data []domain.City `json:"data"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, cityListPath, nil, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch city list: %w", err)
	}

	return envelope.Data.Data, nil
}

// ZoneList fetches the complete list of zones for a city
func (c *APIClient) ZoneList(ctx context.Context, cityID int) ([]domain.Zone, error) {
	var envelope struct {
		Data struct {
			Data []domain.Zone `json:"data"`
		} `json:"data"`
	}

	path := fmt.Sprintf(zoneListPath, cityID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch zone list for city %d: %w", cityID, err)
	}

	return envelope.Data.Data, nil
}

// AreaList fetches the complete list of areas for a zone
func (c *APIClient) AreaList(ctx context.Context, zoneID int) ([]domain.Area, error) {
	var envelope struct {
		Data struct {
			Data []domain.Area `json:"data"`
		} `json:"data"`
	}

	path := fmt.Sprintf(areaListPath, zoneID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch area list for zone %d: %w", zoneID, err)
	}

	return envelope.Data.Data, nil
}

// CreateStore submits a store creation request with resolved location IDs
func (c *APIClient) CreateStore(ctx context.Context, request *domain.StoreCreateRequest) (*domain.Store, error) {
	var envelope struct {
		Data struct {
			Store *domain.Store `json:"store"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, storesPath, nil, request, &envelope); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if envelope.Data.Store == nil {
		return nil, fmt.Errorf("invalid response structure from store creation endpoint")
	}

	return envelope.Data.Store, nil
}

// ListStores fetches up to limit stores; limit <= 0 fetches all
func (c *APIClient) ListStores(ctx context.Context, limit int) ([]domain.Store, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var envelope struct {
		Data struct {
			Stores []domain.Store `json:"stores"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, storesPath, query, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch store list: %w", err)
	}

	return envelope.Data.Stores, nil
}

// do performs a JSON request and decodes the response into out. Failures
// are classified: timeouts map to ErrRequestTimeout, a 401 that survived
// the transport's single retry maps to ErrAuthentication, and any other
// non-2xx status becomes an APIError carrying the request ID.
func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pathao-go/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return fmt.Errorf("%w: %s %s: %v", domain.ErrRequestTimeout, method, path, err)
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: status 401: %s", domain.ErrAuthentication, string(snippet))
		}
		return domain.NewAPIError(resp.StatusCode, string(snippet), requestID)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// isTimeoutError reports whether err is a deadline failure rather than a
// refused or failed connection
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
