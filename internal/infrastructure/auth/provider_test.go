package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

func testCredentials() domain.Credentials {
	return domain.Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "merchant@example.com",
		Password:     "secret",
	}
}

func TestHTTPTokenProvider_Authenticate(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/aladdin/api/v1/issue-token", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-abc",
			"refresh_token": "refresh-xyz",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	provider := NewHTTPTokenProvider(server.URL, testCredentials(), zerolog.Nop())

	record, err := provider.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "access-abc", record.AccessToken)
	assert.Equal(t, "refresh-xyz", record.RefreshToken)
	assert.Equal(t, "Bearer", record.TokenType)
	assert.False(t, record.IsExpired())

	assert.Equal(t, map[string]string{
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"username":      "merchant@example.com",
		"password":      "secret",
		"grant_type":    "password",
	}, gotBody)
}

func TestHTTPTokenProvider_Refresh(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-next",
			"expires_in":   7200,
		})
	}))
	defer server.Close()

	provider := NewHTTPTokenProvider(server.URL, testCredentials(), zerolog.Nop())

	record, err := provider.Refresh(context.Background(), "refresh-old")
	require.NoError(t, err)

	assert.Equal(t, "access-next", record.AccessToken)
	// Defaults for fields the server omitted
	assert.Equal(t, "Bearer", record.TokenType)
	assert.Empty(t, record.RefreshToken)

	assert.Equal(t, map[string]string{
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"refresh_token": "refresh-old",
		"grant_type":    "refresh_token",
	}, gotBody)
}

func TestHTTPTokenProvider_GrantRejected(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{
			name:       "bad credentials",
			statusCode: http.StatusUnauthorized,
			wantErr:    domain.ErrAuthentication,
		},
		{
			name:       "malformed grant",
			statusCode: http.StatusBadRequest,
			wantErr:    domain.ErrAuthentication,
		},
		{
			name:       "unprocessable grant",
			statusCode: http.StatusUnprocessableEntity,
			wantErr:    domain.ErrAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "invalid grant", tt.statusCode)
			}))
			defer server.Close()

			provider := NewHTTPTokenProvider(server.URL, testCredentials(), zerolog.Nop())

			_, err := provider.Authenticate(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPTokenProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewHTTPTokenProvider(server.URL, testCredentials(), zerolog.Nop())

	_, err := provider.Authenticate(context.Background())
	require.Error(t, err)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.NotErrorIs(t, err, domain.ErrAuthentication)
}

func TestHTTPTokenProvider_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	provider := NewHTTPTokenProvider(server.URL, testCredentials(), zerolog.Nop())
	provider.httpClient.Timeout = 50 * time.Millisecond

	_, err := provider.Authenticate(context.Background())
	assert.ErrorIs(t, err, domain.ErrRequestTimeout)
}
