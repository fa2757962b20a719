package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	Assembly AssemblyConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"recalliq"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret  string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	RefreshSecret string        `envconfig:"JWT_REFRESH_SECRET" default:"your-refresh-secret-change-in-production"`
	AccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	RefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"168h"`
}

// GeminiConfig holds the AI provider configuration
type GeminiConfig struct {
	APIKey  string        `envconfig:"GEMINI_API_KEY"`
	BaseURL string        `envconfig:"GEMINI_API_URL" default:"https://generativelanguage.googleapis.com"`
	Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	Timeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`
}

// AssemblyConfig holds AssemblyAI configuration for audio transcription
type AssemblyConfig struct {
	APIKey      string        `envconfig:"ASSEMBLYAI_API_KEY"`
	PollTimeout time.Duration `envconfig:"ASSEMBLYAI_POLL_TIMEOUT" default:"10m"`
}

// StorageConfig holds object storage configuration for report exports
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"recalliq-exports"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL" default:""`
}

// MetricsConfig holds Prometheus exposure configuration
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Server.Environment == "production" {
		if c.JWT.AccessSecret == "your-access-secret-change-in-production" ||
			c.JWT.RefreshSecret == "your-refresh-secret-change-in-production" {
			return fmt.Errorf("JWT secrets must be set in production")
		}
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
