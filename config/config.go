// Package config loads platform settings from the environment, an optional .env
// file and Azure Key Vault.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/validation"
)

const devAuthSecret = "development-only-secret-do-not-use-in-prod"

// Config holds the platform configuration.
type Config struct {
	// Service identification
	ServiceName string
	Environment string
	Version     string

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`

	// Telemetry
	AppInsightsKey  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceSampleRate float64 `validate:"min=0,max=1"`

	// Car-data API
	CarDataURL     string `validate:"required,url"`
	CarDataAPIKey  string
	CarDataTimeout time.Duration
	CarDataRPS     float64 `validate:"min=0"`
	// CarDataModels overrides the model pool sampled by batch fetches.
	CarDataModels []string
	BatchSize     int `validate:"min=1,max=20"`

	// Identity
	IdentityURL     string `validate:"required,url"`
	IdentityAPIKey  string
	LocalAuthSecret string

	// Storage
	StorageBackend   string `validate:"storage_backend"`
	StoragePath      string
	StorageNamespace string

	RedisAddr     string `validate:"required_if=StorageBackend redis"`
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	SQLConnectionString string
	SQLHost             string
	SQLPort             int
	SQLDatabase         string
	SQLUser             string
	SQLPassword         string
	SQLUseMSI           bool

	CosmosDBEndpoint string `validate:"required_if=StorageBackend cosmos"`
	CosmosDBKey      string
	CosmosDBDatabase string

	BlobConnectionString string
	BlobAccountURL       string
	BlobContainer        string

	KeyVaultName string
}

// Load loads configuration from an optional .env file and environment variables.
// Outside development, secrets are read from Azure Key Vault when KEY_VAULT_NAME is set.
func Load(serviceName string) (*Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := fromEnv(serviceName)

	if cfg.KeyVaultName != "" && !cfg.IsDevelopment() {
		vault, err := NewVaultSecrets(cfg.KeyVaultName)
		if err != nil {
			return nil, fmt.Errorf("failed to load secrets from Key Vault: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cfg.ApplySecrets(ctx, vault)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(serviceName string) *Config {
	cfg, err := Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// loadDotEnv loads path into the environment without overriding set variables.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func fromEnv(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Environment: getEnv("ENVIRONMENT", "development"),
		Version:     getEnv("VERSION", "0.0.1"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		AppInsightsKey:  getEnv("APPINSIGHTS_INSTRUMENTATIONKEY", ""),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSampleRate: getEnvFloat("TRACE_SAMPLE_RATE", 1.0),

		CarDataURL:     getEnv("CAR_DATA_URL", "https://api.api-ninjas.com/v1"),
		CarDataAPIKey:  getEnvWithFallback("CAR_DATA_API_KEY", "API_NINJAS_KEY", ""),
		CarDataTimeout: getEnvDuration("CAR_DATA_TIMEOUT", 10*time.Second),
		CarDataRPS:     getEnvFloat("CAR_DATA_RPS", 8),
		CarDataModels:  getEnvSlice("CAR_DATA_MODELS", ""),
		BatchSize:      getEnvInt("CATALOGUE_BATCH_SIZE", 12),

		IdentityURL:     getEnv("IDENTITY_URL", "https://identitytoolkit.googleapis.com/v1"),
		IdentityAPIKey:  getEnvWithFallback("IDENTITY_API_KEY", "FIREBASE_API_KEY", ""),
		LocalAuthSecret: getEnv("LOCAL_AUTH_SECRET", devAuthSecret),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", string(storage.BackendFile))),
		StoragePath:      getEnv("STORAGE_PATH", storage.DefaultFilePath()),
		StorageNamespace: getEnv("STORAGE_NAMESPACE", "autorent"),

		RedisAddr:     getEnvWithFallback("REDIS_ADDR", "REDIS_HOST", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTLS:      getEnvBool("REDIS_TLS", false),

		SQLConnectionString: getEnv("SQL_CONNECTION_STRING", ""),
		SQLHost:             getEnv("SQL_HOST", "localhost"),
		SQLPort:             getEnvInt("SQL_PORT", 0),
		SQLDatabase:         getEnv("SQL_DATABASE", "autorent"),
		SQLUser:             getEnv("SQL_USER", ""),
		SQLPassword:         getEnv("SQL_PASSWORD", ""),
		SQLUseMSI:           getEnvBool("SQL_USE_MSI", false),

		CosmosDBEndpoint: getEnvWithFallback("COSMOSDB_ENDPOINT", "COSMOS_DB_ENDPOINT", ""),
		CosmosDBKey:      getEnvWithFallback("COSMOSDB_KEY", "COSMOS_DB_KEY", ""),
		CosmosDBDatabase: getEnvWithFallback("COSMOSDB_DATABASE", "COSMOS_DB_DATABASE", "autorent"),

		BlobConnectionString: getEnv("BLOB_CONNECTION_STRING", ""),
		BlobAccountURL:       getEnv("BLOB_ACCOUNT_URL", ""),
		BlobContainer:        getEnv("BLOB_CONTAINER", "autorent-state"),

		KeyVaultName: getEnv("KEY_VAULT_NAME", ""),
	}
}

// Validate checks field constraints and backend requirements.
func (c *Config) Validate() error {
	if err := validation.ToAppError(c, "invalid configuration"); err != nil {
		return err
	}
	if storage.Backend(c.StorageBackend) == storage.BackendBlob && c.BlobConnectionString == "" && c.BlobAccountURL == "" {
		return apperrors.ValidationWithDetails("invalid configuration", map[string]string{
			"BlobAccountURL": "BLOB_CONNECTION_STRING or BLOB_ACCOUNT_URL is required for the blob backend",
		})
	}
	if !c.IsDevelopment() && c.UseLocalIdentity() && c.LocalAuthSecret == devAuthSecret {
		return apperrors.ValidationWithDetails("invalid configuration", map[string]string{
			"LocalAuthSecret": "LOCAL_AUTH_SECRET must be set outside development",
		})
	}
	return nil
}

// UseLocalIdentity reports whether accounts are kept locally instead of the identity service.
func (c *Config) UseLocalIdentity() bool {
	return c.IdentityAPIKey == ""
}

// Storage builds the storage configuration for the selected backend.
func (c *Config) Storage() storage.Config {
	sc := storage.DefaultConfig()
	sc.Backend = storage.Backend(c.StorageBackend)
	sc.FilePath = c.StoragePath

	sc.Redis.Addr = c.RedisAddr
	sc.Redis.Password = c.RedisPassword
	sc.Redis.DB = c.RedisDB
	sc.Redis.TLSEnabled = c.RedisTLS
	sc.Redis.Namespace = c.StorageNamespace

	dialect := storage.DialectSQLServer
	if sc.Backend == storage.BackendPostgres {
		dialect = storage.DialectPostgres
	}
	sc.SQL = storage.DefaultSQLConfig(dialect)
	sc.SQL.DSN = c.SQLConnectionString
	sc.SQL.Host = c.SQLHost
	if c.SQLPort > 0 {
		sc.SQL.Port = c.SQLPort
	}
	sc.SQL.Database = c.SQLDatabase
	sc.SQL.User = c.SQLUser
	sc.SQL.Password = c.SQLPassword
	sc.SQL.UseMSI = c.SQLUseMSI
	sc.SQL.Namespace = c.StorageNamespace

	sc.Cosmos.Endpoint = c.CosmosDBEndpoint
	sc.Cosmos.Key = c.CosmosDBKey
	sc.Cosmos.DatabaseName = c.CosmosDBDatabase
	sc.Cosmos.Namespace = c.StorageNamespace
	sc.Cosmos.CreateIfMissing = c.IsDevelopment()

	sc.Blob.ConnectionString = c.BlobConnectionString
	sc.Blob.AccountURL = c.BlobAccountURL
	sc.Blob.Container = c.BlobContainer
	sc.Blob.Namespace = c.StorageNamespace
	sc.Blob.CreateIfMissing = true

	return sc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvWithFallback gets an environment variable with fallback to another key.
func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvSlice splits a comma-separated variable, dropping empty elements.
func getEnvSlice(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

// GetEnvInt gets an environment variable as an integer with a default value.
func GetEnvInt(key string, defaultValue int) int {
	return getEnvInt(key, defaultValue)
}

// GetEnvBool gets an environment variable as a boolean with a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	return getEnvBool(key, defaultValue)
}

// GetEnvDuration gets an environment variable as a duration with a default value.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvDuration(key, defaultValue)
}

// GetEnvFloat gets an environment variable as a float with a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	return getEnvFloat(key, defaultValue)
}

// GetEnvSlice gets a comma-separated environment variable as a slice.
func GetEnvSlice(key, defaultValue string) []string {
	return getEnvSlice(key, defaultValue)
}
