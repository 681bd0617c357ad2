// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/fittrack/fittrack/logger"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	// SessionDriverMemory keeps the session in process memory.
	SessionDriverMemory = "memory"
	// SessionDriverRedis persists the session in Redis so restarts keep the user signed in.
	SessionDriverRedis = "redis"

	// DefaultStorageKey mirrors the key the browser client persists its session under.
	DefaultStorageKey = "sb-auth-token"

	minKeyLength = 8
)

// ServerConfig holds settings for the UI-facing HTTP server.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
	// SiteURL is the origin passwordless sign-in links redirect back to.
	SiteURL string `mapstructure:"SITE_URL" yaml:"site_url"`
	// AuthRateLimit caps sign-in requests per client IP per minute. Zero
	// disables the limit.
	AuthRateLimit int `mapstructure:"AUTH_RATE_LIMIT" yaml:"auth_rate_limit"`
	// TrustedProxies lists the IPs or CIDRs whose forwarding headers are
	// believed when resolving the client IP. Empty trusts none.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES" yaml:"trusted_proxies"`
}

// SupabaseConfig holds the two values needed to construct the backend client.
type SupabaseConfig struct {
	URL        string `mapstructure:"URL" yaml:"url"`
	AnonKey    string `mapstructure:"ANON_KEY" yaml:"anon_key"`
	StorageKey string `mapstructure:"STORAGE_KEY" yaml:"storage_key"`
}

// SessionStoreConfig selects where the auth session is persisted.
type SessionStoreConfig struct {
	Driver        string `mapstructure:"DRIVER" yaml:"driver"`
	RedisAddress  string `mapstructure:"REDIS_ADDRESS" yaml:"redis_address"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"REDIS_DB" yaml:"redis_db"`
	RedisUseTLS   bool   `mapstructure:"REDIS_USE_TLS" yaml:"redis_use_tls"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server       ServerConfig       `mapstructure:"SERVER" yaml:"server"`
	Supabase     SupabaseConfig     `mapstructure:"SUPABASE" yaml:"supabase"`
	SessionStore SessionStoreConfig `mapstructure:"SESSION_STORE" yaml:"session_store"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds each config key to one or more environment variables.
// Format: []{configKey, envVar, fallbackEnvVar...}; the first set variable wins.
func bindEnvVars(v *viper.Viper, bindings [][]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// applies defaults, unmarshals and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.SITE_URL", "http://localhost:5173")
	v.SetDefault("SERVER.AUTH_RATE_LIMIT", 10)
	v.SetDefault("SERVER.TRUSTED_PROXIES", []string{})
	v.SetDefault("SUPABASE.STORAGE_KEY", DefaultStorageKey)
	v.SetDefault("SESSION_STORE.DRIVER", SessionDriverMemory)
	v.SetDefault("SESSION_STORE.REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("SESSION_STORE.REDIS_PASSWORD", "")
	v.SetDefault("SESSION_STORE.REDIS_DB", 0)
	v.SetDefault("SESSION_STORE.REDIS_USE_TLS", false)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][]string{
		// Server config
		{"SERVER.ENVIRONMENT", "ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.VERSION", "VERSION"},
		{"SERVER.SITE_URL", "SITE_URL", "PUBLIC_SITE_URL"},
		{"SERVER.AUTH_RATE_LIMIT", "AUTH_RATE_LIMIT"},
		{"SERVER.TRUSTED_PROXIES", "TRUSTED_PROXIES"},
		// Supabase, accepted under the web client's PUBLIC_ names too
		{"SUPABASE.URL", "SUPABASE_URL", "PUBLIC_SUPABASE_URL"},
		{"SUPABASE.ANON_KEY", "SUPABASE_ANON_KEY", "PUBLIC_SUPABASE_ANON_KEY"},
		{"SUPABASE.STORAGE_KEY", "SUPABASE_STORAGE_KEY"},
		// Session store
		{"SESSION_STORE.DRIVER", "SESSION_STORE_DRIVER"},
		{"SESSION_STORE.REDIS_ADDRESS", "REDIS_ADDRESS"},
		{"SESSION_STORE.REDIS_PASSWORD", "REDIS_PASSWORD"},
		{"SESSION_STORE.REDIS_DB", "REDIS_DB"},
		{"SESSION_STORE.REDIS_USE_TLS", "REDIS_USE_TLS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"site_url", v.GetString("SERVER.SITE_URL"),
		"supabase_url", v.GetString("SUPABASE.URL"),
		"supabase_anon_key", logger.MaskJWT(v.GetString("SUPABASE.ANON_KEY")),
		"session_store", v.GetString("SESSION_STORE.DRIVER"),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.Environment != EnvDevelopment && cfg.Server.Environment != EnvProduction {
		return fmt.Errorf("unknown environment %q", cfg.Server.Environment)
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}
	if cfg.Server.AuthRateLimit < 0 {
		return fmt.Errorf("auth rate limit cannot be negative")
	}
	for i, proxy := range cfg.Server.TrustedProxies {
		proxy = strings.TrimSpace(proxy)
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid trusted proxy '%s'", proxy)
			}
		}
		cfg.Server.TrustedProxies[i] = proxy
	}
	if cfg.Server.SiteURL != "" {
		if _, err := url.ParseRequestURI(cfg.Server.SiteURL); err != nil {
			return fmt.Errorf("invalid site URL: %w", err)
		}
	}

	if err := validateSupabase(&cfg.Supabase); err != nil {
		return err
	}

	return validateSessionStore(&cfg.SessionStore)
}

func validateSupabase(sb *SupabaseConfig) error {
	if sb.URL == "" {
		return fmt.Errorf("supabase URL is required")
	}
	u, err := url.ParseRequestURI(sb.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid supabase URL '%s'", sb.URL)
	}
	sb.URL = strings.TrimRight(sb.URL, "/")

	if sb.AnonKey == "" {
		return fmt.Errorf("supabase anon key is required")
	}
	if len(sb.AnonKey) < minKeyLength {
		return fmt.Errorf("supabase anon key must be at least %d characters long", minKeyLength)
	}
	if sb.StorageKey == "" {
		sb.StorageKey = DefaultStorageKey
	}
	return nil
}

func validateSessionStore(ss *SessionStoreConfig) error {
	switch ss.Driver {
	case SessionDriverMemory:
		return nil
	case SessionDriverRedis:
		if ss.RedisAddress == "" {
			return fmt.Errorf("redis address is required for the redis session store")
		}
		if ss.RedisPassword == "" && ss.RedisUseTLS {
			logger.GetLogger().Warn("Redis password is not set, but TLS is enabled. Ensure this is correct for your Redis provider.")
		}
		return nil
	default:
		return fmt.Errorf("unknown session store driver %q", ss.Driver)
	}
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
