// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for calls to the classification backend.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// APIConfig locates the classification backend.
type APIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root, e.g. "https://example.org/api/v1".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// WorkspaceID scopes every scheme and result request.
	WorkspaceID int `json:"workspace_id" yaml:"workspace_id" mapstructure:"workspace_id"`

	// Token is the bearer token. Usually loaded from .secrets/api-token.
	Token string `json:"-" yaml:"-" mapstructure:"token"`

	// MaxRetries bounds retries on HTTP 429 and 503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// DefaultCacheTTL is how long fetched results stay fresh.
const DefaultCacheTTL = 5 * time.Minute

// CacheConfig controls the result cache.
type CacheConfig struct {
	// TTL is the expiry of a cached result set (default 5m).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// Path is a SQLite file for a persistent cache. Empty keeps results in memory.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// DisplayConfig tunes record truncation in formatted output.
type DisplayConfig struct {
	// CompactItems caps records shown in compact cells (default 2).
	CompactItems int `json:"compact_items" yaml:"compact_items" mapstructure:"compact_items"`

	// FullItems caps records shown elsewhere (default 5).
	FullItems int `json:"full_items" yaml:"full_items" mapstructure:"full_items"`
}

// LogConfig selects zap's level and encoder.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings read from resultlens.yaml and the environment.
type Config struct {
	API     APIConfig     `json:"api" yaml:"api" mapstructure:"api"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Display DisplayConfig `json:"display" yaml:"display" mapstructure:"display"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
