package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateAPIConfig(&cfg.API); err != nil {
		return fmt.Errorf("YAML global config: api directive is invalid: %w", err)
	}
	if err := ValidateAnalysisConfig(&cfg.Analysis); err != nil {
		return fmt.Errorf("YAML global config: analysis directive is invalid: %w", err)
	}
	if err := ValidateStoreConfig(&cfg.Store); err != nil {
		return fmt.Errorf("YAML global config: store directive is invalid: %w", err)
	}
	if err := ValidateMetricsConfig(&cfg.Metrics); err != nil {
		return fmt.Errorf("YAML global config: metrics directive is invalid: %w", err)
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// ValidateAPIConfig checks the remote service settings.
func ValidateAPIConfig(apiConfig *API) error {
	if apiConfig == nil {
		return fmt.Errorf("api configuration is nil")
	}
	if apiConfig.BaseURL != "" {
		u, err := url.Parse(apiConfig.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url must use http or https scheme: %q", apiConfig.BaseURL)
		}
	}
	if err := validateDuration(apiConfig.SessionRefresh, "session_refresh", 24*time.Hour); err != nil {
		return err
	}
	return nil
}

// ValidateAnalysisConfig checks the submit/poll settings.
func ValidateAnalysisConfig(analysisConfig *Analysis) error {
	if analysisConfig == nil {
		return fmt.Errorf("analysis configuration is nil")
	}
	if err := validateDuration(analysisConfig.PollInterval, "poll_interval", 1*time.Minute); err != nil {
		return err
	}
	if err := validateDuration(analysisConfig.Timeout, "timeout", 1*time.Hour); err != nil {
		return err
	}
	if err := validateDuration(analysisConfig.Debounce, "debounce", 1*time.Minute); err != nil {
		return err
	}
	if analysisConfig.Timeout != 0 && analysisConfig.PollInterval > analysisConfig.Timeout {
		return fmt.Errorf("poll_interval %v exceeds timeout %v", analysisConfig.PollInterval, analysisConfig.Timeout)
	}
	return nil
}

// ValidateStoreConfig rejects a store that is both in memory and file backed.
func ValidateStoreConfig(storeConfig *Store) error {
	if storeConfig.InMemory && storeConfig.Path != "" {
		return fmt.Errorf("path %q cannot be set together with in_memory", storeConfig.Path)
	}
	return nil
}

// ValidateMetricsConfig checks that the metrics address is a host:port pair.
func ValidateMetricsConfig(metricsConfig *Metrics) error {
	if metricsConfig.Address == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(metricsConfig.Address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", metricsConfig.Address, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port in address %q", metricsConfig.Address)
	}
	if n == 0 {
		return nil
	}
	return validatePort(n)
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	return validatePort(proxy.Port)
}

// validateHost ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
