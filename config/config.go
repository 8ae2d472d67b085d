package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
	RedisURL           string
	DashboardCacheTTL  time.Duration
	CORSAllowedOrigins []string

	// Loyalty rules
	MilestoneThreshold      int
	RevenueUnitPrice        decimal.Decimal
	RetentionWindowDays     int
	SeparateZeroOrderBucket bool
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	unitPrice, err := decimal.NewFromString(getEnv("REVENUE_UNIT_PRICE", "10.00"))
	if err != nil {
		return nil, fmt.Errorf("REVENUE_UNIT_PRICE must be a decimal: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("DASHBOARD_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("DASHBOARD_CACHE_TTL must be a duration: %w", err)
	}

	threshold, err := getEnvInt("MILESTONE_THRESHOLD", 10)
	if err != nil {
		return nil, err
	}
	retentionDays, err := getEnvInt("RETENTION_WINDOW_DAYS", 30)
	if err != nil {
		return nil, err
	}
	separateZero, err := getEnvBool("SEPARATE_ZERO_ORDER_BUCKET", true)
	if err != nil {
		return nil, err
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RedisURL:           getEnv("REDIS_URL", ""),
		DashboardCacheTTL:  cacheTTL,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		MilestoneThreshold:      threshold,
		RevenueUnitPrice:        unitPrice,
		RetentionWindowDays:     retentionDays,
		SeparateZeroOrderBucket: separateZero,
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	current = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.MilestoneThreshold < 1 {
		return fmt.Errorf("MILESTONE_THRESHOLD must be at least 1, got %d", c.MilestoneThreshold)
	}
	if c.RevenueUnitPrice.IsNegative() {
		return fmt.Errorf("REVENUE_UNIT_PRICE must not be negative")
	}
	if c.RetentionWindowDays < 1 {
		return fmt.Errorf("RETENTION_WINDOW_DAYS must be at least 1, got %d", c.RetentionWindowDays)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// AuthEnabled reports whether JWT validation should guard the API
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != ""
}

// RetentionWindow returns the trailing window used for the retention rate
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.RetentionWindowDays) * 24 * time.Hour
}

// GetConfig returns the configuration loaded by Load (or set by SetConfig)
func GetConfig() *Config {
	return current
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
