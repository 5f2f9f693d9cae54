package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "ExpensePilot"
	defaultAppEnv          = "development"
	defaultPort            = "3000"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultTokenTTL        = 7 * 24 * time.Hour
	defaultCORSOrigin      = "http://localhost:3000"
	defaultRateLimitWindow = 15 * time.Minute
	defaultRateLimitMax    = 100
	defaultLoginAttempts   = 5
	defaultDeletePolicy    = "nullify"
	defaultReportTimezone  = "UTC"
	defaultDBMaxConns      = 10
	defaultDBMaxConnIdle   = 5 * time.Minute
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName                string
	AppEnv                 string
	Port                   string
	LogLevel               string
	DatabaseURL            string
	DBMaxConns             int
	DBMinConns             int
	DBMaxConnIdle          time.Duration
	RedisURL               string
	MigrateOnStart         bool
	JWTSecret              string
	TokenTTL               time.Duration
	CORSOrigin             string
	RateLimitWindow        time.Duration
	RateLimitMax           int
	LoginAttemptsPerMinute int
	CategoryDeletePolicy   string
	ReportTimezone         string
	ReportLocation         *time.Location
	ShutdownPeriod         time.Duration
	IdempotencyTTL         time.Duration
}

// Load reads configuration values from the environment (and an optional .env
// file) and populates a Config instance.
func Load() (Config, error) {
	// .env is a local development convenience; deployments set real env vars.
	_ = godotenv.Load()

	cfg := Config{
		AppName:              getEnv("APP_NAME", defaultAppName),
		AppEnv:               strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:                 getEnv("PORT", defaultPort),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		CORSOrigin:           getEnv("CORS_ORIGIN", defaultCORSOrigin),
		CategoryDeletePolicy: strings.ToLower(getEnv("CATEGORY_DELETE_POLICY", defaultDeletePolicy)),
		ReportTimezone:       getEnv("REPORT_TIMEZONE", defaultReportTimezone),
		ShutdownPeriod:       defaultShutdownDelay,
		IdempotencyTTL:       defaultIdempotencyTTL,
	}

	var err error
	if cfg.MigrateOnStart, err = getEnvAsBool("MIGRATE_ON_START", true); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConns, err = getEnvAsInt("DB_MAX_CONNS", defaultDBMaxConns); err != nil {
		return Config{}, err
	}
	if cfg.DBMinConns, err = getEnvAsInt("DB_MIN_CONNS", 0); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConnIdle, err = getEnvAsDuration("DB_MAX_CONN_IDLE", defaultDBMaxConnIdle); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getEnvAsDuration("JWT_EXPIRES_IN", defaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = getEnvAsDuration("RATE_LIMIT_WINDOW", defaultRateLimitWindow); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMax, err = getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", defaultRateLimitMax); err != nil {
		return Config{}, err
	}
	if cfg.LoginAttemptsPerMinute, err = getEnvAsInt("LOGIN_ATTEMPTS_PER_MINUTE", defaultLoginAttempts); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", cfg.ReportTimezone, err)
	}
	cfg.ReportLocation = loc

	return cfg, nil
}

// Validate checks that required values are present and ranges make sense.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.DatabaseURL == "" && !c.InMemoryAllowed() {
		return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.AppEnv)
	}

	port, err := strconv.Atoi(strings.TrimPrefix(c.Port, ":"))
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	if c.DatabaseURL != "" {
		if c.DBMaxConns <= 0 {
			return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
		}
		if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
		}
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.TokenTTL)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}

	switch c.CategoryDeletePolicy {
	case "nullify", "restrict", "cascade":
	default:
		return fmt.Errorf("invalid CATEGORY_DELETE_POLICY %q: must be nullify, restrict or cascade", c.CategoryDeletePolicy)
	}

	return nil
}

// IsDevelopment reports whether the app runs in a local/dev environment, where
// in-memory stores are allowed and internal error details are exposed.
func (c Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// InMemoryAllowed reports whether the app may run without a database,
// falling back to in-memory stores.
func (c Config) InMemoryAllowed() bool {
	return c.IsDevelopment() || c.AppEnv == "test"
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
