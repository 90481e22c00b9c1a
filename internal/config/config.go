package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnMaxLife   time.Duration
	AutoMigrate     bool
	MongoDBURI      string
	MongoDBPassword string
	MongoDBDatabase string

	SupabaseURL     string
	SupabaseAnonKey string
	StorageBucket   string
	JWTSecret       string

	CORSAllowedOrigins []string
	PresenceIdle       time.Duration
	UploadDir          string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:  getIntWithDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getIntWithDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLife:   time.Duration(getIntWithDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
		AutoMigrate:     getEnvWithDefault("AUTO_MIGRATE", "true") == "true",
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase: getEnvWithDefault("MONGODB_DATABASE", "Annivdb"),

		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_URL_ANON_KEY"),
		StorageBucket:   os.Getenv("SUPABASE_STORAGE_BUCKET"),
		JWTSecret:       os.Getenv("JWT_SECRET"),

		CORSAllowedOrigins: splitList(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		PresenceIdle:       time.Duration(getIntWithDefault("PRESENCE_IDLE_MINUTES", 5)) * time.Minute,
		UploadDir:          getEnvWithDefault("UPLOAD_DIR", "static/upload"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.PresenceIdle <= 0 {
		return nil, fmt.Errorf("PRESENCE_IDLE_MINUTES must be positive")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
