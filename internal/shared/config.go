package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	API         APIConfig         `toml:"api"`
	Cache       CacheConfig       `toml:"cache"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// ServerConfig contains settings for the local authorization callback listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// APIConfig contains Spotify Web API endpoints and request limits.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	AccountsURL       string  `toml:"accounts_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxPages          int     `toml:"max_pages"`
	PageLimit         int     `toml:"page_limit"`
	FeaturesBatchSize int     `toml:"features_batch_size"`
}

// CacheConfig contains the location of the refresh-token cache file.
type CacheConfig struct {
	TokenPath string `toml:"token_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports missing Spotify credentials and nonsensical limits.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: spotify %s must be set in config.toml or the environment", ErrMissingCredentials, strings.Join(missing, " and "))
	}

	if c.API.FeaturesBatchSize <= 0 || c.API.FeaturesBatchSize > 100 {
		return fmt.Errorf("%w: api.features_batch_size must be between 1 and 100", ErrInvalidConfig)
	}
	if c.API.MaxPages <= 0 {
		return fmt.Errorf("%w: api.max_pages must be positive", ErrInvalidConfig)
	}

	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CallbackAddr is the host:port the authorization callback listener binds to.
func (s ServerConfig) CallbackAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
