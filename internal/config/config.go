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

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Market    MarketConfig
	Yahoo     YahooConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AuthConfig guards the write endpoints. An empty InternalAPIKey disables the guard.
type AuthConfig struct {
	InternalAPIKey string
	TimeTokenTTL   time.Duration
}

// MarketConfig describes the exchange whose sessions gate equity trades.
type MarketConfig struct {
	Timezone        string
	Holidays        []string // YYYY-MM-DD
	BenchmarkSymbol string
}

// YahooConfig holds market data provider settings.
type YahooConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	Timeout           time.Duration
}

// CacheConfig holds in-memory cache settings.
type CacheConfig struct {
	TTL time.Duration
}

// SchedulerConfig holds the background refresh job settings.
type SchedulerConfig struct {
	RefreshSchedule    string
	RefreshConcurrency int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfoliohut.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Auth: AuthConfig{
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		Market: MarketConfig{
			Timezone:        getEnv("MARKET_TIMEZONE", "America/New_York"),
			Holidays:        getEnvList("MARKET_HOLIDAYS", nil),
			BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "^GSPC"),
		},
		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},
		Scheduler: SchedulerConfig{
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "30 17 * * 1-5"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if config.Auth.TimeTokenTTL, err = getEnvDuration("TIME_TOKEN_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.Yahoo.RequestsPerSecond, err = getEnvFloat("YAHOO_REQUESTS_PER_SECOND", 2); err != nil {
		return nil, err
	}
	if config.Yahoo.Burst, err = getEnvInt("YAHOO_BURST", 5); err != nil {
		return nil, err
	}
	if config.Yahoo.MaxRetries, err = getEnvInt("YAHOO_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if config.Yahoo.Timeout, err = getEnvDuration("YAHOO_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if config.Cache.TTL, err = getEnvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if config.Scheduler.RefreshConcurrency, err = getEnvInt("REFRESH_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(config.Market.Timezone); err != nil {
		return nil, fmt.Errorf("invalid MARKET_TIMEZONE %q: %w", config.Market.Timezone, err)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
