package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRecord_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
		expected  bool
	}{
		{
			name:      "expired in the past",
			expiresIn: -1 * time.Minute,
			expected:  true,
		},
		{
			name:      "inside the grace window",
			expiresIn: 30 * time.Second,
			expected:  true,
		},
		{
			name:      "exactly at the grace boundary",
			expiresIn: 60 * time.Second,
			expected:  true,
		},
		{
			name:      "comfortably valid",
			expiresIn: 2 * time.Minute,
			expected:  false,
		},
		{
			name:      "long-lived token",
			expiresIn: 1 * time.Hour,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &TokenRecord{
				AccessToken: "test-token",
				TokenType:   "Bearer",
				ExpiresAt:   time.Now().Add(tt.expiresIn),
				IssuedAt:    time.Now(),
			}

			assert.Equal(t, tt.expected, record.IsExpired())
		})
	}
}

func TestTokenGrantResponse_ToTokenRecord(t *testing.T) {
	t.Run("full response", func(t *testing.T) {
		response := &TokenGrantResponse{
			AccessToken:  "access-abc",
			RefreshToken: "refresh-xyz",
			TokenType:    "Bearer",
			ExpiresIn:    7200,
		}

		record := response.ToTokenRecord()
		require.NotNil(t, record)

		assert.Equal(t, "access-abc", record.AccessToken)
		assert.Equal(t, "refresh-xyz", record.RefreshToken)
		assert.Equal(t, "Bearer", record.TokenType)

		expected := time.Now().Add(7200 * time.Second)
		assert.WithinDuration(t, expected, record.ExpiresAt, 2*time.Second)
	})

	t.Run("missing expires_in defaults to one hour", func(t *testing.T) {
		response := &TokenGrantResponse{AccessToken: "access-abc"}

		record := response.ToTokenRecord()

		expected := time.Now().Add(3600 * time.Second)
		assert.WithinDuration(t, expected, record.ExpiresAt, 2*time.Second)
	})

	t.Run("missing token_type defaults to Bearer", func(t *testing.T) {
		response := &TokenGrantResponse{AccessToken: "access-abc", ExpiresIn: 3600}

		record := response.ToTokenRecord()

		assert.Equal(t, "Bearer", record.TokenType)
	})

	t.Run("missing refresh_token stays empty", func(t *testing.T) {
		response := &TokenGrantResponse{AccessToken: "access-abc", ExpiresIn: 3600}

		record := response.ToTokenRecord()

		assert.Empty(t, record.RefreshToken)
		assert.False(t, record.IsExpired())
	})
}
