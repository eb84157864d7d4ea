package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	API        API        `yaml:"api"`
	Analysis   Analysis   `yaml:"analysis"`
	Store      Store      `yaml:"store"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Logger holds logger settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// HTTPClient holds settings for the resty client used to talk to the analysis service.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// API describes the remote analysis service.
type API struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	SessionRefresh time.Duration `yaml:"session_refresh"`
}

// Analysis controls the submit/poll cycle.
type Analysis struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	Timeout       time.Duration `yaml:"timeout"`
	AnalyzeOnSave *bool         `yaml:"analyze_on_save"`
	Debounce      time.Duration `yaml:"debounce"`
}

// Store configures the persisted finding store.
type Store struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type Metrics struct {
	Address string `yaml:"address"`
}

// ValidateConfigPath checks that path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file, applies .env files and environment overrides.
// A missing configuration file is not an error: defaults and environment are used instead.
func LoadConfig(configPath string) (*Config, error) {
	// .env files are optional, they help local development
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := LoadYAML(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvironment(cfg)
	return cfg, nil
}

// applyEnvironment overrides config values from environment variables.
func applyEnvironment(cfg *Config) {
	if v := os.Getenv("SCANIO_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("SCANIO_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SCANIO_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// GetHome returns the home folder of the tool.
func GetHome() (string, error) {
	if home := os.Getenv("SCANIO_IDE_HOME"); home != "" {
		return files.ExpandPath(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get user home folder: %w", err)
	}
	return filepath.Join(userHome, ".scanio-ide"), nil
}
