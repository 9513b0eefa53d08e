package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort string
	Mongo      MongoConfig
	Redis      RedisConfig
	Session    SessionConfig
	Ledger     LedgerConfig
	Logging    LoggingConfig
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	// Addr may be empty, in which case sessions are kept in process memory.
	Addr string
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	SecureCookie bool
}

type LedgerConfig struct {
	// EnforceOwner turns on ownership checks for get/update/delete.
	// Off by default: any authenticated caller may touch any record by id.
	EnforceOwner bool
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: envOrDefault("PORT", "8080"),
		Mongo: MongoConfig{
			URI:            envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database:       envOrDefault("MONGO_DATABASE", "expense_info"),
			ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Redis: RedisConfig{
			Addr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		},
		Session: SessionConfig{
			CookieName:   envOrDefault("SESSION_COOKIE_NAME", "session_token"),
			TTL:          parseDuration(envOrDefault("SESSION_TTL", "24h"), 24*time.Hour),
			SecureCookie: parseBool(envOrDefault("SESSION_SECURE_COOKIE", "false"), false),
		},
		Ledger: LedgerConfig{
			EnforceOwner: parseBool(envOrDefault("LEDGER_ENFORCE_OWNER", "false"), false),
		},
		Logging: LoggingConfig{
			Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
			Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
			EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
			ServiceName:  envOrDefault("SERVICE_NAME", "spendlog"),
		},
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}
