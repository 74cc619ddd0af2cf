package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Validator checks configuration values before a client is built from them
type Validator struct{}

// NewValidator creates a configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBaseURL validates the API host URL
func (v *Validator) ValidateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (must be http or https)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}

	if u.Scheme == "http" && !strings.Contains(u.Host, "localhost") && !strings.Contains(u.Host, "127.0.0.1") {
		fmt.Fprintf(os.Stderr, "Warning: using non-HTTPS endpoint for non-localhost URL: %s\n", baseURL)
	}

	return nil
}

// ValidateCredentials validates the merchant credential set
func (v *Validator) ValidateCredentials(clientID, clientSecret, username, password string) error {
	if clientID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}
	if clientSecret == "" {
		return fmt.Errorf("client secret cannot be empty")
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	for name, value := range map[string]string{
		"client ID":     clientID,
		"client secret": clientSecret,
	} {
		if strings.ContainsAny(value, " \t\r\n") {
			return fmt.Errorf("%s cannot contain whitespace characters", name)
		}
		if isPlaceholder(value) {
			return fmt.Errorf("%s appears to be a placeholder value", name)
		}
	}

	return nil
}

// ValidateTimeout validates the request timeout
func (v *Validator) ValidateTimeout(timeout time.Duration) error {
	if timeout < 1*time.Second {
		return fmt.Errorf("timeout too short (minimum 1s)")
	}
	if timeout > 5*time.Minute {
		return fmt.Errorf("timeout too long (maximum 5m)")
	}
	return nil
}

// ValidateCacheTTL validates the reference data TTL
func (v *Validator) ValidateCacheTTL(ttl time.Duration) error {
	if ttl < 1*time.Minute {
		return fmt.Errorf("cache TTL too short (minimum 1m)")
	}
	if ttl > 90*24*time.Hour {
		return fmt.Errorf("cache TTL too long (maximum 90 days)")
	}
	return nil
}

// ValidateCachePath checks that the cache file location is usable. The
// in-memory sentinel and paths whose parent can be created both pass.
func (v *Validator) ValidateCachePath(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}

	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("cache path is a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check cache path: %w", err)
	}

	// The file does not exist yet; its directory must exist or be
	// creatable under an existing ancestor.
	dir := filepath.Dir(path)
	for dir != "." && dir != string(filepath.Separator) {
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// ValidateAll validates a complete config and returns one error per
// failing field, keyed by field name
func (v *Validator) ValidateAll(cfg *Config) map[string]error {
	errors := make(map[string]error)

	if err := v.ValidateBaseURL(cfg.BaseURL); err != nil {
		errors["base_url"] = err
	}
	if err := v.ValidateCredentials(cfg.ClientID, cfg.ClientSecret, cfg.Username, cfg.Password); err != nil {
		errors["credentials"] = err
	}
	if err := v.ValidateTimeout(cfg.Timeout); err != nil {
		errors["timeout"] = err
	}
	if err := v.ValidateCacheTTL(cfg.CacheTTL); err != nil {
		errors["cache_ttl"] = err
	}
	if err := v.ValidateCachePath(cfg.CachePath); err != nil {
		errors["cache_path"] = err
	}

	return errors
}

func isPlaceholder(value string) bool {
	placeholders := []string{
		"your-client-id",
		"your-client-secret",
		"<client-id>",
		"<client-secret>",
		"REPLACE_ME",
		"CHANGE_ME",
	}

	lower := strings.ToLower(value)
	for _, placeholder := range placeholders {
		if strings.Contains(lower, strings.ToLower(placeholder)) {
			return true
		}
	}
	return false
}
