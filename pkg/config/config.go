package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Model    ModelConfig
	Pricing  PricingConfig
	Geocode  GeocodeConfig
	Jobs     JobsConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration for the prediction event bus
type NATSConfig struct {
	Enabled    bool
	URL        string
	StreamName string
}

// ModelConfig holds the prediction model artifact configuration
type ModelConfig struct {
	Path        string
	AvgSpeedKmh float64
}

// PricingConfig holds fare calculation parameters
type PricingConfig struct {
	BaseFare  float64
	PerKmRate float64
	Currency  string
}

// GeocodeConfig holds the reverse-geocoding collaborator configuration
type GeocodeConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// JobsConfig holds async prediction job settings
type JobsConfig struct {
	Workers          int
	QueueSize        int
	RetentionSeconds int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8001"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rapidride"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			Enabled:    getEnvAsBool("NATS_ENABLED", true),
			URL:        getEnv("NATS_URL", "nats://localhost:4222"),
			StreamName: getEnv("NATS_STREAM", "PREDICTIONS"),
		},
		Model: ModelConfig{
			Path:        getEnv("MODEL_PATH", "models/model.json"),
			AvgSpeedKmh: getEnvAsFloat("AVG_SPEED_KMH", 30.0),
		},
		Pricing: PricingConfig{
			BaseFare:  getEnvAsFloat("BASE_FARE", 20.0),
			PerKmRate: getEnvAsFloat("PER_KM_RATE", 8.0),
			Currency:  getEnv("CURRENCY", "INR"),
		},
		Geocode: GeocodeConfig{
			BaseURL:        getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			TimeoutSeconds: getEnvAsInt("GEOCODE_TIMEOUT_SECONDS", 2),
		},
		Jobs: JobsConfig{
			Workers:          getEnvAsInt("JOB_WORKERS", 4),
			QueueSize:        getEnvAsInt("JOB_QUEUE_SIZE", 256),
			RetentionSeconds: getEnvAsInt("JOB_RETENTION_SECONDS", 3600),
		},
	}

	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 1
	}

	if cfg.Jobs.QueueSize <= 0 {
		cfg.Jobs.QueueSize = 64
	}

	if cfg.Model.AvgSpeedKmh <= 0 {
		return nil, fmt.Errorf("AVG_SPEED_KMH must be positive, got %v", cfg.Model.AvgSpeedKmh)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Timeout returns the geocoding request timeout as a duration
func (c *GeocodeConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Retention returns how long finished job records are kept
func (c *JobsConfig) Retention() time.Duration {
	if c.RetentionSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.RetentionSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
