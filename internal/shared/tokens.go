package shared

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

// TokenCache persists the Spotify refresh token between invocations in a small TOML file.
//
// Only the refresh token is stored; access tokens are requested fresh each run.
type TokenCache struct {
	path string
}

type cachedToken struct {
	RefreshToken string    `toml:"refresh_token"`
	Scope        string    `toml:"scope,omitempty"`
	SavedAt      time.Time `toml:"saved_at"`
}

// NewTokenCache returns a cache backed by the file at path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Path returns the cache file location.
func (c *TokenCache) Path() string {
	return c.path
}

// Load returns the cached refresh token, or [ErrNoRefreshToken] when nothing usable is cached.
func (c *TokenCache) Load() (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoRefreshToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token cache: %w", err)
	}

	var cached cachedToken
	if err := toml.Unmarshal(data, &cached); err != nil {
		return "", fmt.Errorf("%w: failed to parse token cache %s: %v", ErrInvalidConfig, c.path, err)
	}
	if cached.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	return cached.RefreshToken, nil
}

// Save writes the refresh token from token to the cache file with owner-only permissions.
//
// Tokens without a refresh token are ignored. All failures wrap [ErrCacheWrite].
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil || token.RefreshToken == "" {
		return nil
	}

	cached := cachedToken{RefreshToken: token.RefreshToken, SavedAt: time.Now().UTC()}
	if scope, ok := token.Extra("scope").(string); ok {
		cached.Scope = scope
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cached); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("%w: %v", ErrCacheWrite, err)
		}
	}

	if err := os.WriteFile(c.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}

	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (c *TokenCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}
