package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	App       AppConfig
	Log       LogConfig
	Vault     VaultConfig
	LLM       LLMConfig
	Redis     RedisConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Duration time.Duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	Env     string
	Name    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// VaultConfig holds Vault-related configuration.
// When enabled, the LLM API key is read from the KV v2 secret at SecretPath.
type VaultConfig struct {
	Address    string
	Token      string
	KVMount    string
	SecretPath string
	SecretKey  string
	Enabled    bool
}

// LLMConfig holds configuration for the AI scoring oracle
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	Enabled bool
}

// RedisConfig holds Redis configuration. An empty URL disables Redis.
type RedisConfig struct {
	URL       string
	AIRunTTL  time.Duration
	KeyPrefix string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// godotenv doesn't override already-set variables, so order matters
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 90*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "decisionhub"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "decisionhub_db"),
			SSLMode:         getEnv("DB_SSLMODE", "prefer"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			ExposedHeaders:   getSliceEnv("CORS_EXPOSED_HEADERS", []string{"Link"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getIntEnv("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", true),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Duration: getDurationEnv("RATE_LIMIT_DURATION", 1*time.Minute),
		},
		App: AppConfig{
			Env:     getEnv("APP_ENV", "development"),
			Name:    getEnv("APP_NAME", "DecisionHub"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Vault: VaultConfig{
			Address:    getEnv("VAULT_ADDR", "http://localhost:8200"),
			Token:      getEnv("VAULT_TOKEN", ""),
			KVMount:    getEnv("VAULT_KV_MOUNT", "secret"),
			SecretPath: getEnv("VAULT_LLM_SECRET_PATH", "decision-hub/llm"),
			SecretKey:  getEnv("VAULT_LLM_SECRET_KEY", "api_key"),
			Enabled:    getBoolEnv("VAULT_ENABLED", false),
		},
		LLM: LLMConfig{
			BaseURL: getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
			Model:   getEnv("LLM_MODEL", "llama3"),
			APIKey:  getEnv("LLM_API_KEY", ""),
			Timeout: getDurationEnv("LLM_TIMEOUT", 60*time.Second),
			Enabled: getBoolEnv("LLM_ENABLED", true),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			AIRunTTL:  getDurationEnv("REDIS_AI_RUN_TTL", 2*time.Minute),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "decision-hub:"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.Password == "" && c.App.Env == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	if c.Vault.Enabled && c.Vault.Token == "" {
		return fmt.Errorf("VAULT_TOKEN is required when VAULT_ENABLED is true")
	}
	if c.LLM.Enabled && c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL is required when LLM_ENABLED is true")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Split by comma and trim whitespace
		parts := strings.Split(value, ",")
		var result []string
		for _, v := range parts {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
