package httpinfra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/pathao-go/internal/core/domain"
)

// stubTokenSource hands out a fixed token and swaps to refreshedTo when
// ForceRefresh is called
type stubTokenSource struct {
	mu           sync.Mutex
	token        string
	refreshedTo  string
	accessErr    error
	refreshErr   error
	refreshCalls int
}

func (s *stubTokenSource) makeRecord(token string) *domain.TokenRecord {
	return &domain.TokenRecord{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		IssuedAt:    time.Now(),
	}
}

func (s *stubTokenSource) AccessToken(ctx context.Context) (*domain.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessErr != nil {
		return nil, s.accessErr
	}
	return s.makeRecord(s.token), nil
}

func (s *stubTokenSource) ForceRefresh(ctx context.Context) (*domain.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	s.token = s.refreshedTo
	return s.makeRecord(s.token), nil
}

func (s *stubTokenSource) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func newTestClient(tokens *stubTokenSource) *http.Client {
	return &http.Client{Transport: NewAuthRoundTripper(tokens, zerolog.Nop())}
}

func TestAuthRoundTripper_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &stubTokenSource{token: "token-1"}
	client := newTestClient(tokens)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, 0, tokens.refreshCount())
}

func TestAuthRoundTripper_RefreshesOnceOnUnauthorized(t *testing.T) {
	var seenTokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTokens = append(seenTokens, r.Header.Get("Authorization"))
		if len(seenTokens) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &stubTokenSource{token: "stale", refreshedTo: "fresh"}
	client := newTestClient(tokens)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, tokens.refreshCount())
	require.Len(t, seenTokens, 2)
	assert.Equal(t, "Bearer stale", seenTokens[0])
	assert.Equal(t, "Bearer fresh", seenTokens[1])
}

func TestAuthRoundTripper_SecondUnauthorizedIsSurfaced(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &stubTokenSource{token: "stale", refreshedTo: "fresh"}
	client := newTestClient(tokens)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, tokens.refreshCount(), "rejection after a refresh must not refresh again")
}

func TestAuthRoundTripper_RefreshFailureKeepsOriginalResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &stubTokenSource{token: "stale", refreshErr: errors.New("grant rejected")}
	client := newTestClient(tokens)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, tokens.refreshCount())
}

func TestAuthRoundTripper_ReplaysBodyOnRetry(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &stubTokenSource{token: "stale", refreshedTo: "fresh"}
	client := newTestClient(tokens)

	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"name":"test store"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, bodies, 2)
	assert.Equal(t, `{"name":"test store"}`, bodies[0])
	assert.Equal(t, bodies[0], bodies[1], "retried request must carry the same body")
}

func TestAuthRoundTripper_TokenSourceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server without a token")
	}))
	defer server.Close()

	tokens := &stubTokenSource{accessErr: domain.ErrAuthentication}
	client := newTestClient(tokens)

	resp, err := client.Get(server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Nil(t, resp)
}
