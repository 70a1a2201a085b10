package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "https://api.spotify.com/v1" {
			t.Errorf("expected api base URL https://api.spotify.com/v1, got %s", config.API.BaseURL)
		}
		if config.Server.Port != 8008 {
			t.Errorf("expected server port 8008, got %d", config.Server.Port)
		}
		if config.API.FeaturesBatchSize != 100 {
			t.Errorf("expected features batch size 100, got %d", config.API.FeaturesBatchSize)
		}
		if config.Cache.TokenPath != "auth.toml" {
			t.Errorf("expected token path auth.toml, got %s", config.Cache.TokenPath)
		}
		if len(config.Credentials.Spotify.Scopes) != 2 {
			t.Errorf("expected 2 default scopes, got %v", config.Credentials.Spotify.Scopes)
		}
		if config.Credentials.Spotify.ClientID != "" {
			t.Errorf("expected empty default client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.API.AccountsURL != defaultConfig.API.AccountsURL {
			t.Errorf("created config accounts URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 9090

[api]
max_pages = 25
features_batch_size = 50

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9090/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.CallbackAddr() != "0.0.0.0:9090" {
			t.Errorf("expected callback addr 0.0.0.0:9090, got %s", config.Server.CallbackAddr())
		}
		if config.API.MaxPages != 25 {
			t.Errorf("expected max pages 25, got %d", config.API.MaxPages)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.API.BaseURL != "https://api.spotify.com/v1" {
			t.Errorf("expected unset base_url to keep default, got %s", config.API.BaseURL)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(c *Config)
			wantErr error
		}{
			{
				name:    "missing credentials",
				mutate:  func(c *Config) {},
				wantErr: ErrMissingCredentials,
			},
			{
				name: "missing secret only",
				mutate: func(c *Config) {
					c.Credentials.Spotify.ClientID = "id"
				},
				wantErr: ErrMissingCredentials,
			},
			{
				name: "batch size above API limit",
				mutate: func(c *Config) {
					c.Credentials.Spotify.ClientID = "id"
					c.Credentials.Spotify.ClientSecret = "secret"
					c.API.FeaturesBatchSize = 101
				},
				wantErr: ErrInvalidConfig,
			},
			{
				name: "zero max pages",
				mutate: func(c *Config) {
					c.Credentials.Spotify.ClientID = "id"
					c.Credentials.Spotify.ClientSecret = "secret"
					c.API.MaxPages = 0
				},
				wantErr: ErrInvalidConfig,
			},
			{
				name: "valid",
				mutate: func(c *Config) {
					c.Credentials.Spotify.ClientID = "id"
					c.Credentials.Spotify.ClientSecret = "secret"
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)

				err := config.Validate()
				if tt.wantErr == nil {
					if err != nil {
						t.Errorf("expected no error, got %v", err)
					}
					return
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		if got := (APIConfig{TimeoutSeconds: 5}).Timeout(); got != 5*time.Second {
			t.Errorf("expected 5s, got %v", got)
		}
		if got := (APIConfig{}).Timeout(); got != 30*time.Second {
			t.Errorf("expected 30s fallback, got %v", got)
		}
	})
}
