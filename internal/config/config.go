// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
)

// Config holds every setting the binaries need. All values come from
// the environment with sensible development defaults.
type Config struct {
	Env      string
	HTTPPort string

	MongoURI string
	MongoDB  string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string // sandbox | development | production

	GeminiAPIKey string
	GeminiModel  string

	JWTSecret string
	JWTIssuer string
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Env:      get("APP_ENV", "dev"),
		HTTPPort: get("HTTP_PORT", "8080"),

		MongoURI: get("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:  get("MONGODB_DB", "karma"),

		PlaidClientID: get("PLAID_CLIENT_ID", ""),
		PlaidSecret:   get("PLAID_SECRET", ""),
		PlaidEnv:      get("PLAID_ENV", "sandbox"),

		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", "gemini-2.5-flash"),

		JWTSecret: get("JWT_SECRET", "changeme-secret"),
		JWTIssuer: get("JWT_ISSUER", "karma-app"),
	}
}

func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
