package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DatabaseTypeMongoDB    = "mongodb"
	DatabaseTypePostgreSQL = "postgresql"

	passwordPlaceholder = "<PASSWORD>"
)

// Config is the process wide configuration, read once at startup.
type Config struct {
	App        AppConfig        `json:"app"`
	Database   DatabaseConfig   `json:"database"`
	JWT        JWTConfig        `json:"jwt"`
	Email      EmailConfig      `json:"email"`
	Security   SecurityConfig   `json:"security"`
	Cache      CacheConfig      `json:"cache"`
	RateLimits RateLimitsConfig `json:"rateLimits"`
}

// AppConfig holds server-related configuration
type AppConfig struct {
	Env            string `json:"env"`
	Port           int    `json:"port"`
	CORSOrigins    string `json:"corsOrigins"`
	BodyLimit      int    `json:"bodyLimit"`
	MetricsEnabled bool   `json:"metricsEnabled"`
}

// DatabaseConfig selects a backend and carries the settings of both.
type DatabaseConfig struct {
	Type     string           `json:"type"`
	Mongo    MongoDBConfig    `json:"mongo"`
	Postgres PostgreSQLConfig `json:"postgres"`
}

type MongoDBConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	MaxPoolSize    uint64        `json:"maxPoolSize"`
	MinPoolSize    uint64        `json:"minPoolSize"`
	ConnectTimeout time.Duration `json:"connectTimeout"`
	MaxIdleTime    time.Duration `json:"maxIdleTime"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	DSN             string        `json:"dsn"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret          string        `json:"-"`
	ExpiresIn       time.Duration `json:"expiresIn"`
	CookieExpiresIn time.Duration `json:"cookieExpiresIn"`
}

// EmailConfig holds SMTP settings for password reset mails
type EmailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	From     string `json:"from"`
}

type SecurityConfig struct {
	// PasswordMinScore is the minimum zxcvbn score on signup. Zero disables the check.
	PasswordMinScore int `json:"passwordMinScore"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Backend         string        `json:"backend"`
	Prefix          string        `json:"prefix"`
	TTL             time.Duration `json:"ttl"`
	MaxMemory       int64         `json:"maxMemory"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	Redis           RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string   `json:"address"`
	Password     string   `json:"-"`
	DB           int      `json:"db"`
	PoolSize     int      `json:"poolSize"`
	MinIdleConns int      `json:"minIdleConns"`
	ClusterAddrs []string `json:"clusterAddrs"`
}

// RateLimitConfig holds rate limiting configuration for a specific endpoint
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Max      int           `json:"max"`
	Duration time.Duration `json:"duration"`
}

// RateLimitsConfig holds rate limiting configuration for all endpoints
type RateLimitsConfig struct {
	Signup        RateLimitConfig `json:"signup"`
	Login         RateLimitConfig `json:"login"`
	PasswordReset RateLimitConfig `json:"passwordReset"`
}

// IsDevelopment reports whether verbose error responses and request logging are on.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == EnvDevelopment
}

// LoadFromEnv loads configuration from the environment.
// Precedence: explicit environment variables, then values from a .env file,
// then the defaults below. godotenv never overrides variables already set.
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"config.env",
		"../.env",
		"../../.env",
	}

	var loadErr error
	for _, envPath := range envPaths {
		if loadErr = godotenv.Load(envPath); loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return load(func(key string) (string, bool) {
		value := os.Getenv(key)
		return value, value != ""
	})
}

// LoadFromMap loads configuration from an in-memory map.
// Tests use it to exercise configuration logic without touching the process environment.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return load(func(key string) (string, bool) {
		value, ok := envMap[key]
		return value, ok
	})
}

type lookupFunc func(key string) (string, bool)

func load(lookup lookupFunc) (*Config, error) {
	r := reader{lookup: lookup}

	mongoURI := r.str("DATABASE", "mongodb://localhost:27017")
	mongoURI = strings.ReplaceAll(mongoURI, passwordPlaceholder, r.str("DATABASE_PASSWORD", ""))

	config := &Config{
		App: AppConfig{
			Env:            strings.ToLower(r.str("APP_ENV", r.str("NODE_ENV", EnvProduction))),
			Port:           r.integer("PORT", 5000),
			CORSOrigins:    r.str("CORS_ORIGINS", "*"),
			BodyLimit:      r.integer("BODY_LIMIT", 10*1024),
			MetricsEnabled: r.boolean("METRICS_ENABLED", true),
		},
		Database: DatabaseConfig{
			Type: strings.ToLower(r.str("DB_TYPE", DatabaseTypeMongoDB)),
			Mongo: MongoDBConfig{
				URI:            mongoURI,
				Database:       r.str("DATABASE_NAME", "natours"),
				MaxPoolSize:    uint64(r.integer("MONGO_MAX_POOL_SIZE", 100)),
				MinPoolSize:    uint64(r.integer("MONGO_MIN_POOL_SIZE", 0)),
				ConnectTimeout: r.duration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
				MaxIdleTime:    r.duration("MONGO_MAX_IDLE_TIME", 5*time.Minute),
			},
			Postgres: PostgreSQLConfig{
				Host:            r.str("POSTGRES_HOST", "localhost"),
				Port:            r.integer("POSTGRES_PORT", 5432),
				Username:        r.str("POSTGRES_USERNAME", ""),
				Password:        r.str("POSTGRES_PASSWORD", ""),
				Database:        r.str("POSTGRES_DATABASE", "natours"),
				DSN:             r.str("POSTGRES_DSN", ""),
				SSLMode:         r.str("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    r.integer("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    r.integer("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(r.integer("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
			},
		},
		JWT: JWTConfig{
			Secret:          r.str("JWT_SECRET", ""),
			ExpiresIn:       r.expiry("JWT_EXPIRES_IN", 90*24*time.Hour),
			CookieExpiresIn: time.Duration(r.integer("JWT_COOKIE_EXPIRES_IN", 90)) * 24 * time.Hour,
		},
		Email: EmailConfig{
			Host:     r.str("EMAIL_HOST", ""),
			Port:     r.integer("EMAIL_PORT", 587),
			Username: r.str("EMAIL_USERNAME", ""),
			Password: r.str("EMAIL_PASSWORD", ""),
			From:     r.str("EMAIL_FROM", "Natours <hello@natours.io>"),
		},
		Security: SecurityConfig{
			PasswordMinScore: r.integer("PASSWORD_MIN_SCORE", 0),
		},
		Cache: CacheConfig{
			Enabled:         r.boolean("CACHE_ENABLED", true),
			Backend:         r.str("CACHE_BACKEND", "memory"),
			Prefix:          r.str("CACHE_PREFIX", "natours:"),
			TTL:             r.duration("CACHE_TTL", 10*time.Minute),
			MaxMemory:       r.integer64("CACHE_MAX_MEMORY", 64*1024*1024),
			CleanupInterval: r.duration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
			Redis: RedisConfig{
				Address:      r.str("REDIS_ADDRESS", "localhost:6379"),
				Password:     r.str("REDIS_PASSWORD", ""),
				DB:           r.integer("REDIS_DB", 0),
				PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
				MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 5),
				ClusterAddrs: r.list("REDIS_CLUSTER_ADDRS"),
			},
		},
		RateLimits: RateLimitsConfig{
			Signup: RateLimitConfig{
				Enabled:  r.boolean("RATE_LIMIT_SIGNUP_ENABLED", true),
				Max:      r.integer("RATE_LIMIT_SIGNUP_MAX", 10),
				Duration: r.duration("RATE_LIMIT_SIGNUP_DURATION", time.Hour),
			},
			Login: RateLimitConfig{
				Enabled:  r.boolean("RATE_LIMIT_LOGIN_ENABLED", true),
				Max:      r.integer("RATE_LIMIT_LOGIN_MAX", 10),
				Duration: r.duration("RATE_LIMIT_LOGIN_DURATION", 15*time.Minute),
			},
			PasswordReset: RateLimitConfig{
				Enabled:  r.boolean("RATE_LIMIT_PASSWORD_RESET_ENABLED", true),
				Max:      r.integer("RATE_LIMIT_PASSWORD_RESET_MAX", 3),
				Duration: r.duration("RATE_LIMIT_PASSWORD_RESET_DURATION", time.Hour),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.JWT.Secret) == "" {
		errors = append(errors, "JWT_SECRET is required")
	}
	if c.JWT.ExpiresIn <= 0 {
		errors = append(errors, "JWT_EXPIRES_IN must be positive")
	}

	validDbTypes := []string{DatabaseTypeMongoDB, DatabaseTypePostgreSQL}
	if !contains(validDbTypes, c.Database.Type) {
		errors = append(errors, fmt.Sprintf("DB_TYPE must be one of: %s", strings.Join(validDbTypes, ", ")))
	}

	if c.Security.PasswordMinScore < 0 || c.Security.PasswordMinScore > 4 {
		errors = append(errors, "PASSWORD_MIN_SCORE must be between 0 and 4")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// reader applies typed defaults over a key lookup. Values that fail to parse fall back to the default.
type reader struct {
	lookup lookupFunc
}

func (r reader) str(key, defaultValue string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (r reader) integer(key string, defaultValue int) int {
	if value, ok := r.lookup(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (r reader) integer64(key string, defaultValue int64) int64 {
	if value, ok := r.lookup(key); ok {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (r reader) boolean(key string, defaultValue bool) bool {
	if value, ok := r.lookup(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (r reader) duration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := r.lookup(key); ok {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// expiry accepts Go durations plus a day suffix ("90d").
func (r reader) expiry(key string, defaultValue time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	if d, err := ParseExpiry(value); err == nil {
		return d
	}
	return defaultValue
}

func (r reader) list(key string) []string {
	value, ok := r.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseExpiry parses "90d", "12h", "30m" or a bare number of seconds.
func ParseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty expiry")
	}
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q: %w", value, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
