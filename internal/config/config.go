package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds the core runtime configuration.  Each field corresponds to
// an environment variable.  Feature-specific settings live in their own
// loaders (LoadBookingConfig, LoadRateLimitConfig, ...).
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBMaxOpen     int           // connection pool size
	DBMaxIdle     int           // idle connections kept open
	DBMaxLifetime time.Duration // recycle connections after this long
	JWTSecret     string        // secret used to verify JWTs
	AutoMigrate   bool          // create tables on startup when true
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		DBMaxOpen:     envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:     envInt("DB_MAX_IDLE_CONNS", 25),
		DBMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:     must("JWT_SECRET"),
		AutoMigrate:   envBool("DB_AUTO_MIGRATE", false),
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
