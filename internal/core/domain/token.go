package domain

import (
	"time"
)

// expiryGrace is subtracted from the recorded expiry so a token is retired
// before the server would actually reject it. A record within the grace
// window is treated as already expired.
const expiryGrace = 60 * time.Second

// Credentials holds the merchant API credentials used for the password grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// TokenRecord represents an issued access token with expiration
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"` // Optional refresh token
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	IssuedAt     time.Time `json:"issued_at"`
}

// IsExpired checks if the token has expired, counting the grace window
// before the recorded expiry as expired
func (t *TokenRecord) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt.Add(-expiryGrace))
}

// TimeUntilExpiry returns the duration until the token expires
func (t *TokenRecord) TimeUntilExpiry() time.Duration {
	return time.Until(t.ExpiresAt)
}

// TokenGrantResponse represents the response from the issue-token endpoint
type TokenGrantResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until expiration
}

// ToTokenRecord converts the grant response to a TokenRecord, applying the
// documented defaults for fields the server may omit
func (r *TokenGrantResponse) ToTokenRecord() *TokenRecord {
	expiresIn := r.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	tokenType := r.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	now := time.Now()
	return &TokenRecord{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
		IssuedAt:     now,
	}
}
