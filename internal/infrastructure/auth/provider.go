package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

// issueTokenPath is the single endpoint serving both grant types
const issueTokenPath = "/aladdin/api/v1/issue-token"

// HTTPTokenProvider performs token grants against the issue-token endpoint.
// It uses its own plain HTTP client: token requests must never pass through
// the authenticated transport, or a rejected token would recurse.
type HTTPTokenProvider struct {
	baseURL     string
	credentials domain.Credentials
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewHTTPTokenProvider creates a provider for the given API host and
// merchant credentials
func NewHTTPTokenProvider(baseURL string, credentials domain.Credentials, logger zerolog.Logger) *HTTPTokenProvider {
	return &HTTPTokenProvider{
		baseURL:     baseURL,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Authenticate runs the password grant with the configured credentials
func (p *HTTPTokenProvider) Authenticate(ctx context.Context) (*domain.TokenRecord, error) {
	p.logger.Debug().Str("grant_type", "password").Msg("requesting token")

	body := map[string]string{
		"client_id":     p.credentials.ClientID,
		"client_secret": p.credentials.ClientSecret,
		"username":      p.credentials.Username,
		"password":      p.credentials.Password,
		"grant_type":    "password",
	}

	return p.issueToken(ctx, body)
}

// Refresh runs the refresh_token grant
func (p *HTTPTokenProvider) Refresh(ctx context.Context, refreshToken string) (*domain.TokenRecord, error) {
	p.logger.Debug().Str("grant_type", "refresh_token").Msg("requesting token")

	body := map[string]string{
		"client_id":     p.credentials.ClientID,
		"client_secret": p.credentials.ClientSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	}

	return p.issueToken(ctx, body)
}

func (p *HTTPTokenProvider) issueToken(ctx context.Context, body map[string]string) (*domain.TokenRecord, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + issueTokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pathao-go/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: token request: %v", domain.ErrRequestTimeout, err)
		}
		return nil, fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrAuthentication, resp.StatusCode, string(snippet))
		default:
			return nil, domain.NewAPIError(resp.StatusCode, string(snippet), "")
		}
	}

	var grant domain.TokenGrantResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	record := grant.ToTokenRecord()
	p.logger.Info().Time("expires_at", record.ExpiresAt).Bool("has_refresh", record.RefreshToken != "").Msg("token issued")

	return record, nil
}

// isTimeout reports whether err is a deadline failure rather than a
// refused or failed connection
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
