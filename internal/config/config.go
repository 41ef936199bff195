// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// SessionTTL > 0 enables the background session reaper. Zero keeps
	// abandoned conversations indefinitely.
	SessionTTL time.Duration

	Records RecordsConfig
	Timeout TimeoutConfig
}

// RecordsConfig configures the remote record-store collaborator.
type RecordsConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	SiteID       string
	ListID       string
	AuthorityURL string
	GraphURL     string
	Scope        string
}

// TimeoutConfig bounds outbound calls.
type TimeoutConfig struct {
	Request     time.Duration
	Token       time.Duration
	HealthCheck time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "3978"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/unidesk.db"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 0),
		Records: RecordsConfig{
			TenantID:     getEnv("TENANT_ID", ""),
			ClientID:     getEnv("APP_ID", ""),
			ClientSecret: getEnv("APP_PASSWORD", ""),
			SiteID:       getEnv("RECORDS_SITE_ID", ""),
			ListID:       getEnv("RECORDS_LIST_ID", ""),
			AuthorityURL: getEnv("AUTHORITY_URL", "https://login.microsoftonline.com"),
			GraphURL:     getEnv("GRAPH_URL", "https://graph.microsoft.com/v1.0"),
			Scope:        getEnv("RECORDS_SCOPE", "https://graph.microsoft.com/.default"),
		},
		Timeout: TimeoutConfig{
			Request:     getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
			Token:       getEnvDuration("TOKEN_TIMEOUT", 10*time.Second),
			HealthCheck: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Timeout.Request <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.Timeout.Token <= 0 {
		return fmt.Errorf("TOKEN_TIMEOUT must be > 0")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL cannot be negative")
	}
	return nil
}

// RecordsConfigured reports whether the record-store credentials are set.
func (c *Config) RecordsConfigured() bool {
	r := c.Records
	return r.TenantID != "" && r.ClientID != "" && r.ClientSecret != "" &&
		r.SiteID != "" && r.ListID != ""
}

// TokenURL is the OAuth2 token endpoint for the configured tenant.
func (r RecordsConfig) TokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(r.AuthorityURL, "/"), r.TenantID)
}

// ItemsURL is the record list's items collection endpoint.
func (r RecordsConfig) ItemsURL() string {
	return fmt.Sprintf("%s/sites/%s/lists/%s/items", strings.TrimRight(r.GraphURL, "/"), r.SiteID, r.ListID)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are read as minutes.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Minute
	}
	return fallback
}
