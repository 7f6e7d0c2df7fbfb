// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort             string
	DatabasePath           string
	JWTSecretKey           string
	AdminEmail             string
	Environment            string
	CleanupScheduleEnabled bool
	CleanupCronSpec        string
	LoginRateLimitAttempts int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		DatabasePath:           getEnv("DATABASE_PATH", "chat_backend.db"),
		JWTSecretKey:           getEnv("JWT_SECRET_KEY", ""),
		AdminEmail:             getEnv("ADMIN_EMAIL", ""),
		Environment:            env,
		CleanupScheduleEnabled: getEnvAsBool("CLEANUP_SCHEDULE_ENABLED", false),
		CleanupCronSpec:        getEnv("CLEANUP_CRON_SPEC", "0 3 * * *"),
		LoginRateLimitAttempts: getEnvAsInt("LOGIN_RATE_LIMIT_ATTEMPTS", 5),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		if cfg.JWTSecretKey == "" {
			log.Fatalf("Missing required production environment variable: JWT_SECRET_KEY")
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

// getEnvAsBool gets an env var as a boolean, with a fallback.
func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as boolean. Using default value.", key)
		return defaultValue
	}
	return boolValue
}
