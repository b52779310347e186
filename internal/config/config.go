package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	LogLevel     string
	LogEncoding  string
	LogFile      string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	CacheTTL     time.Duration
	SeedDemo     bool
	CookieSecure bool
	BodyLimit    int
	RateLimit    int // requests per minute per client
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBDSN:        getEnv("DB_DSN", "shopcatalog.db"), // sqlite file in project root
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogEncoding:  getEnv("LOG_ENCODING", "json"),
		LogFile:      getEnv("LOG_FILE", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		SeedDemo:     getEnvBool("SEED_DEMO", false),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),
		BodyLimit:    getEnvInt("BODY_LIMIT", 1<<20),
		RateLimit:    getEnvInt("RATE_LIMIT", 120),
	}
	return cfg
}

// LogFields is the startup summary of the config. Secrets and the DSN are
// left out.
func (c Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("db_driver", c.DBDriver),
		zap.String("log_level", c.LogLevel),
		zap.String("redis_addr", c.RedisAddr),
		zap.Bool("seed_demo", c.SeedDemo),
		zap.Int("rate_limit", c.RateLimit),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
