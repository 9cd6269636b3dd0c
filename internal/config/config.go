package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catch-up policies for the recurring scheduler.
const (
	CatchUpAll    = "all"
	CatchUpSingle = "single"
)

// Config holds application configuration
type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBPath         string
	MigrationsPath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Scheduler
	SchedulerInterval   time.Duration
	SchedulerCatchUp    string
	SchedulerMaxCatchUp int
	SchedulerMaxSkew    time.Duration
	SchedulerAPIKey     string

	// Currency conversion
	FXBaseURL       string
	FXTimeout       time.Duration
	FXCacheTTL      time.Duration
	DefaultCurrency string

	// Category classifier
	GeminiAPIKey      string
	GeminiModel       string
	ClassifierTimeout time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		// Database
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "budgeteer"),
		DBPassword:     getEnv("DB_PASSWORD", "budgeteer"),
		DBName:         getEnv("DB_NAME", "budgeteer"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBPath:         getEnv("DB_PATH", "budgeteer.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		SchedulerAPIKey: getEnv("SCHEDULER_API_KEY", ""),

		FXBaseURL:       getEnv("FX_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "15m")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 15m\n", expStr)
		expDur = 15 * time.Minute
	}
	config.JWTExpirationDur = expDur

	switch config.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be postgres or sqlite", config.DBDriver)
	}

	if config.SchedulerInterval, err = parseDuration("SCHEDULER_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if config.SchedulerMaxSkew, err = parseDuration("SCHEDULER_MAX_SKEW", "8784h"); err != nil {
		return nil, err
	}
	if config.FXTimeout, err = parseDuration("FX_TIMEOUT", "3s"); err != nil {
		return nil, err
	}
	if config.FXCacheTTL, err = parseDuration("FX_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}
	if config.ClassifierTimeout, err = parseDuration("CLASSIFIER_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if config.SchedulerMaxCatchUp, err = parsePositiveInt("SCHEDULER_MAX_CATCH_UP", 366); err != nil {
		return nil, err
	}
	if config.SchedulerCatchUp, err = parseCatchUp(getEnv("SCHEDULER_CATCH_UP", CatchUpAll)); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the active configuration. Used by tests and CLIs that build
// a Config without reading the environment.
func Set(c *Config) {
	appConfig = c
}

// PostgresURL returns the golang-migrate style connection URL.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	s := getEnv(key, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, defaultValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func parseCatchUp(s string) (string, error) {
	switch strings.ToLower(s) {
	case CatchUpAll:
		return CatchUpAll, nil
	case CatchUpSingle:
		return CatchUpSingle, nil
	default:
		return "", fmt.Errorf("invalid SCHEDULER_CATCH_UP %q: must be all or single", s)
	}
}
