// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	UpstreamBaseURL  string        // base URL of the remote ticket API
	UpstreamTimeout  time.Duration // end-to-end timeout for upstream calls
	JWTSecret        string        // secret used to verify bearer tokens
	AllowReopen      bool          // permit transitions out of completed/cancelled
	CustomerCacheTTL time.Duration // TTL for cached customer lookups

	DBUser string // database username (transition audit)
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name
}

// Load reads configuration from the environment.  A .env file in the
// working directory is merged in first when present, matching local
// development setups.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		UpstreamBaseURL:  must("UPSTREAM_BASE_URL"),
		UpstreamTimeout:  envDur("UPSTREAM_TIMEOUT", 15*time.Second),
		JWTSecret:        must("JWT_SECRET"),
		AllowReopen:      os.Getenv("TICKETS_ALLOW_REOPEN") == "true",
		CustomerCacheTTL: envDur("CUSTOMER_CACHE_TTL", 5*time.Minute),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
