package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// SandboxBaseURL is the courier sandbox, used unless overridden
	SandboxBaseURL = "https://courier-api-sandbox.pathao.com"

	// ProductionBaseURL is the live courier API
	ProductionBaseURL = "https://api-hermes.pathao.com"

	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Config carries everything needed to talk to the courier API: merchant
// credentials, the API host, and local cache behavior.
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	BaseURL      string
	CachePath    string
	CacheTTL     time.Duration
	Timeout      time.Duration
	Debug        bool
}

// fileConfig is the on-disk JSON shape. Durations are written as strings
// like "30s" and "168h".
type fileConfig struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	CachePath    string `json:"cache_path,omitempty"`
	CacheTTL     string `json:"cache_ttl,omitempty"`
	Timeout      string `json:"timeout,omitempty"`
	Debug        bool   `json:"debug,omitempty"`
}

// Default returns a config pointed at the sandbox with standard cache
// behavior and no credentials
func Default() *Config {
	return &Config{
		BaseURL:   SandboxBaseURL,
		CachePath: DefaultCachePath(),
		CacheTTL:  DefaultCacheTTL,
		Timeout:   DefaultTimeout,
	}
}

// Load builds the effective config: defaults, then the config file when
// present, then PATHAO_* environment variables on top. An empty path
// selects the default config location; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := cfg.applyFile(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config as JSON. The file holds credentials, so it is
// created owner-readable only.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	out := fileConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Username:     c.Username,
		Password:     c.Password,
		BaseURL:      c.BaseURL,
		CachePath:    c.CachePath,
		Debug:        c.Debug,
	}
	if c.CacheTTL > 0 {
		out.CacheTTL = c.CacheTTL.String()
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout.String()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns ~/.pathao/config.json, falling back to the
// working directory when the home directory is unknown
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "pathao-config.json"
	}
	return filepath.Join(homeDir, ".pathao", "config.json")
}

// DefaultCachePath returns ~/.pathao/cache.db, falling back to the
// working directory when the home directory is unknown
func DefaultCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "pathao-cache.db"
	}
	return filepath.Join(homeDir, ".pathao", "cache.db")
}

func (c *Config) applyFile(data []byte) error {
	var file fileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.ClientID != "" {
		c.ClientID = file.ClientID
	}
	if file.ClientSecret != "" {
		c.ClientSecret = file.ClientSecret
	}
	if file.Username != "" {
		c.Username = file.Username
	}
	if file.Password != "" {
		c.Password = file.Password
	}
	if file.BaseURL != "" {
		c.BaseURL = file.BaseURL
	}
	if file.CachePath != "" {
		c.CachePath = file.CachePath
	}
	if file.CacheTTL != "" {
		ttl, err := time.ParseDuration(file.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl: %w", err)
		}
		c.CacheTTL = ttl
	}
	if file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		c.Timeout = timeout
	}
	if file.Debug {
		c.Debug = true
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PATHAO_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("PATHAO_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv("PATHAO_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("PATHAO_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("PATHAO_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PATHAO_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("PATHAO_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = ttl
		}
	}
	if v := os.Getenv("PATHAO_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			c.Timeout = timeout
		}
	}
	if v := os.Getenv("PATHAO_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
}
