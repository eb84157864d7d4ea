package config

import (
	"crypto/tls"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int           // Number of retries for failed requests
	RetryWaitTime    time.Duration // Wait time between retries
	RetryMaxWaitTime time.Duration // Maximum wait time for retries
	Timeout          time.Duration // Timeout for requests
	TLSClientConfig  *tls.Config   // TLS configuration
	Proxy            string        // Proxy address
}

// RestyHTTPClientConfig holds additional configuration settings for the Resty HTTP client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool // Flag to enable Resty debug mode
}

// DefaultHTTPConfig returns a base configuration for HTTP clients with default values.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       3,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          30 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: false,
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns a default configuration for the Resty HTTP client, extending the base HTTP configuration.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
		Debug:          false,
	}
}

const (
	DefaultBaseURL         = "https://api.scanio.dev"
	DefaultSessionRefresh  = 60 * time.Second
	DefaultPollInterval    = 2 * time.Second
	DefaultAnalysisTimeout = 5 * time.Minute
	DefaultDebounce        = 500 * time.Millisecond
)

// GetPollInterval returns the configured poll interval or the default one.
func GetPollInterval(cfg *Config) time.Duration {
	if cfg == nil {
		return DefaultPollInterval
	}
	return SetThen(cfg.Analysis.PollInterval, DefaultPollInterval)
}

// GetAnalysisTimeout returns the overall time budget of a single analysis.
func GetAnalysisTimeout(cfg *Config) time.Duration {
	if cfg == nil {
		return DefaultAnalysisTimeout
	}
	return SetThen(cfg.Analysis.Timeout, DefaultAnalysisTimeout)
}

// GetSessionRefresh returns how often the session token is refreshed.
func GetSessionRefresh(cfg *Config) time.Duration {
	if cfg == nil {
		return DefaultSessionRefresh
	}
	return SetThen(cfg.API.SessionRefresh, DefaultSessionRefresh)
}

// GetDebounce returns the debounce window for analyze-on-save.
func GetDebounce(cfg *Config) time.Duration {
	if cfg == nil {
		return DefaultDebounce
	}
	return SetThen(cfg.Analysis.Debounce, DefaultDebounce)
}

// GetBaseURL returns the configured API base URL or the default one.
func GetBaseURL(cfg *Config) string {
	if cfg == nil {
		return DefaultBaseURL
	}
	return SetThen(cfg.API.BaseURL, DefaultBaseURL)
}
