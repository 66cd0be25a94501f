package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Project
	ProjectName string
	Version     string
	Environment string
	SiteURL     string

	// HTTP Server
	Port        string
	CORSOrigins []string

	// Identity provider
	SupabaseURL string
	SupabaseKey string

	// Session tokens
	SecretKey     string
	Algorithm     string
	TokenLifetime time.Duration

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dashboard cache
	CacheTTL     time.Duration
	CacheMaxSize int

	// Recurring worker
	RecurringInterval time.Duration
}

func Load() *Config {
	return &Config{
		ProjectName: getEnv("PROJECT_NAME", "Financial Insight View"),
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		SiteURL:     getEnv("SITE_URL", "http://localhost:8080"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:8080,http://localhost:3000")),

		SupabaseURL: getEnv("SUPABASE_URL", ""),
		SupabaseKey: getEnv("SUPABASE_KEY", ""),

		SecretKey:     getEnv("SECRET_KEY", ""),
		Algorithm:     getEnv("ALGORITHM", "HS256"),
		TokenLifetime: getEnvDuration("TOKEN_LIFETIME", 8*24*time.Hour),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finview.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finview"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxSize: getEnvInt("CACHE_MAX_SIZE", 200),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", time.Hour),
	}
}

// IsProduction reports whether the server should apply production-only
// behavior such as Secure session cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks the configuration and returns a combined error listing
// everything that is wrong, or nil.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SecretKey == "" {
		problems = append(problems, "SECRET_KEY must be set")
	}
	if c.Algorithm != "HS256" {
		problems = append(problems, fmt.Sprintf("unsupported token algorithm '%s': only HS256 is supported", c.Algorithm))
	}
	if c.TokenLifetime < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid token lifetime %v: must be at least 1 minute", c.TokenLifetime))
	}

	if c.SupabaseURL == "" {
		problems = append(problems, "SUPABASE_URL must be set")
	} else if u, err := url.Parse(c.SupabaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("invalid SUPABASE_URL '%s': must be an http(s) URL", c.SupabaseURL))
	}
	if c.SupabaseKey == "" {
		problems = append(problems, "SUPABASE_KEY must be set")
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheMaxSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache max size %d: must be at least 1", c.CacheMaxSize))
	}

	if c.RecurringInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
