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
	Server   ServerConfig
	Database DatabaseConfig
	Square   SquareConfig
	Checkout CheckoutConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	MetricsPort     int
	RateLimit       float64 // requests per second per client IP
	RateBurst       int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	// URL takes precedence over the individual fields
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// SquareConfig holds Square credentials and transport settings
// Credentials here are defaults; a secret at Secrets.Path overrides them
type SquareConfig struct {
	AccessToken   string
	ApplicationID string
	LocationID    string
	Sandbox       bool
	APIVersion    string
	BaseURL       string // optional override (proxies, tests)
	Timeout       time.Duration
}

// CheckoutConfig holds the merchant options for order building
type CheckoutConfig struct {
	SiteName            string
	PromotionsAffectTax bool
	UseOrders           bool
	CreateCustomers     bool
	DelayCapture        bool
	AdjustmentCeiling   int64
}

// SecretsConfig selects where the Square credentials secret is read from
type SecretsConfig struct {
	Backend  string // env, local, aws, vault
	Path     string // secret name; empty skips the lookup
	LocalDir string
	CacheTTL time.Duration

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress    string
	VaultToken      string
	VaultAuthMethod string
	VaultRoleID     string
	VaultSecretID   string
	VaultMountPath  string
	VaultKVVersion  string
	VaultNamespace  string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadDotEnv loads variables from the given files (default .env) when present
// Variables already set in the environment are never overridden
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			RateLimit:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateBurst:       getEnvAsInt("RATE_LIMIT_BURST", 20),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: LoadDatabaseFromEnv(),
		Square: SquareConfig{
			AccessToken:   getEnv("SQUARE_ACCESS_TOKEN", ""),
			ApplicationID: getEnv("SQUARE_APPLICATION_ID", ""),
			LocationID:    getEnv("SQUARE_LOCATION_ID", ""),
			Sandbox:       getEnvAsBool("SQUARE_SANDBOX", true),
			APIVersion:    getEnv("SQUARE_API_VERSION", ""),
			BaseURL:       getEnv("SQUARE_BASE_URL", ""),
			Timeout:       getEnvAsDuration("SQUARE_TIMEOUT", 30*time.Second),
		},
		Checkout: CheckoutConfig{
			SiteName:            getEnv("SITE_NAME", ""),
			PromotionsAffectTax: getEnvAsBool("PROMOTIONS_AFFECT_TAX", false),
			UseOrders:           getEnvAsBool("SQUARE_USE_ORDERS", true),
			CreateCustomers:     getEnvAsBool("SQUARE_CREATE_CUSTOMERS", false),
			DelayCapture:        getEnvAsBool("SQUARE_DELAY_CAPTURE", false),
			AdjustmentCeiling:   int64(getEnvAsInt("ADJUSTMENT_CEILING", 10)),
		},
		Secrets: SecretsConfig{
			Backend:         strings.ToLower(getEnv("SECRETS_BACKEND", "env")),
			Path:            getEnv("SQUARE_CREDENTIALS_SECRET", ""),
			LocalDir:        getEnv("SECRETS_LOCAL_DIR", "./secrets"),
			CacheTTL:        getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
			AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
			AWSProfile:      getEnv("AWS_PROFILE", ""),
			AWSEndpoint:     getEnv("AWS_ENDPOINT", ""),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultKVVersion:  getEnv("VAULT_KV_VERSION", "v2"),
			VaultNamespace:  getEnv("VAULT_NAMESPACE", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseFromEnv loads only the database section (used by cmd/migrate)
func LoadDatabaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Database: getEnv("DB_NAME", "square_checkout"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),
	}
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}
	if c.Secrets.Path == "" && c.Square.AccessToken == "" {
		return fmt.Errorf("SQUARE_ACCESS_TOKEN or SQUARE_CREDENTIALS_SECRET is required")
	}
	if c.Secrets.Path == "" && c.Square.LocationID == "" {
		return fmt.Errorf("SQUARE_LOCATION_ID is required")
	}
	switch c.Secrets.Backend {
	case "env", "local", "aws", "vault":
	default:
		return fmt.Errorf("unsupported SECRETS_BACKEND %q", c.Secrets.Backend)
	}
	if c.Secrets.Backend == "vault" && c.Secrets.VaultAddress == "" {
		return fmt.Errorf("VAULT_ADDR is required for the vault backend")
	}
	if c.Checkout.AdjustmentCeiling < 0 {
		return fmt.Errorf("ADJUSTMENT_CEILING must not be negative")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
