// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Credential source modes. Local authenticates against the console's own
// account table; backend delegates to the upstream REST service.
const (
	CredentialSourceLocal   = "local"
	CredentialSourceBackend = "backend"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Auth holds session token settings.
	Auth AuthConfig

	// Backend holds upstream REST API settings.
	Backend BackendConfig

	// Database holds MariaDB connection settings (local credential source).
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	// Secret is the shared string mixed into the session token integrity
	// tag. Must be externally configured for any real deployment -- the
	// tag scheme is only as private as this value.
	Secret string

	// CredentialSource selects where login credentials are checked:
	// "local" (account table) or "backend" (upstream /auth/login).
	CredentialSource string
}

// BackendConfig holds settings for the upstream REST API the console
// proxies entity screens to.
type BackendConfig struct {
	// URL is the base URL of the upstream API (e.g. "http://api:9000").
	URL string

	// Timeout bounds every upstream call.
	Timeout time.Duration
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// are read from separate env vars so container orchestrators can manage
// each independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "steward").
	User string

	// Password is the MariaDB password (default: "steward").
	Password string

	// Name is the database name (default: "steward").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL
// was set, it is returned as-is. Otherwise the DSN is built from the
// individual fields using the driver's Config.FormatDSN() to safely handle
// special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// Load reads configuration from environment variables with sensible
// defaults. Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Auth: AuthConfig{
			Secret:           getEnv("AUTH_SECRET", ""),
			CredentialSource: getEnv("CREDENTIAL_SOURCE", CredentialSourceLocal),
		},

		Backend: BackendConfig{
			URL:     getEnv("BACKEND_URL", ""),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		},

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "steward"),
			Password:        getEnv("DB_PASSWORD", "steward"),
			Name:            getEnv("DB_NAME", "steward"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
	}

	switch cfg.Auth.CredentialSource {
	case CredentialSourceLocal, CredentialSourceBackend:
	default:
		return nil, fmt.Errorf("CREDENTIAL_SOURCE must be %q or %q, got %q",
			CredentialSourceLocal, CredentialSourceBackend, cfg.Auth.CredentialSource)
	}

	// The backend credential source cannot work without an upstream.
	if cfg.Auth.CredentialSource == CredentialSourceBackend && cfg.Backend.URL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required when CREDENTIAL_SOURCE=backend")
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.Secret == "" {
			return nil, fmt.Errorf("AUTH_SECRET is required in production")
		}
		if len(cfg.Auth.Secret) < 32 {
			return nil, fmt.Errorf("AUTH_SECRET must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// UsesLocalCredentials returns true if logins are checked against the
// console's own account table rather than the upstream API.
func (c *Config) UsesLocalCredentials() bool {
	return c.Auth.CredentialSource == CredentialSourceLocal
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "15s") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
