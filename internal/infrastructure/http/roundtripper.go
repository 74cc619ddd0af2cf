package httpinfra

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/core/ports"
)

// AuthRoundTripper injects a bearer token into every outbound request. On a
// 401 it forces one refresh-or-authenticate cycle and replays the request
// exactly once; a second 401 is returned to the caller unmodified.
type AuthRoundTripper struct {
	base   http.RoundTripper
	tokens ports.TokenSource
	logger zerolog.Logger
}

// NewAuthRoundTripper wraps http.DefaultTransport with token injection
func NewAuthRoundTripper(tokens ports.TokenSource, logger zerolog.Logger) *AuthRoundTripper {
	return &AuthRoundTripper{base: http.DefaultTransport, tokens: tokens, logger: logger}
}

func (t *AuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token, err := t.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	newReq := req.Clone(ctx)
	newReq.Header.Set("Authorization", fmt.Sprintf("%s %s", token.TokenType, token.AccessToken))

	resp, err := t.base.RoundTrip(newReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	t.logger.Warn().Str("path", req.URL.Path).Msg("token rejected, forcing refresh")

	token, err = t.tokens.ForceRefresh(ctx)
	if err != nil {
		// Refresh failed; the original 401 is the caller's answer.
		return resp, nil
	}

	retry, err := t.cloneForRetry(req)
	if err != nil {
		return resp, nil
	}
	retry.Header.Set("Authorization", fmt.Sprintf("%s %s", token.TokenType, token.AccessToken))

	resp.Body.Close()
	return t.base.RoundTrip(retry)
}

// cloneForRetry rebuilds the request with a fresh body reader. The first
// send consumed the original body, so the replay needs GetBody; a request
// with a one-shot body cannot be retried.
func (t *AuthRoundTripper) cloneForRetry(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())

	if req.Body == nil {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	retry.Body = body

	return retry, nil
}
