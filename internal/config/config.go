package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	LogLevel        string
	CORSOrigins     []string

	// Database
	DatabaseURL         string
	DBHost              string
	DBPort              int
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration
	AutoMigrate         bool

	// Sales ingestion API (used by the import CLI)
	IngestionBaseURL string
	IngestionToken   string
	IngestionTimeout time.Duration

	// Clerk Auth
	ClerkPublishableKey string
	ClerkSecretKey      string

	// S3
	S3Bucket    string
	S3Region    string
	AWSEndpoint string // For LocalStack in development

	// Ledger
	MaxInstallments int

	// Spreadsheet import
	ImportBatchTag      string
	ImportChannel       string
	ImportDefaultClient string
	ImportSKUPrefix     string
	ImportClientAliases map[string]string
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnvInt("PORT", 8080),
		Environment:         getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DBHost:              getEnv("DB_HOST", ""),
		DBPort:              getEnvInt("DB_PORT", 5432),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", ""),
		DBName:              getEnv("DB_NAME", "erp"),
		DBSSLMode:           getEnv("DB_SSLMODE", "disable"),
		DBMaxConnections:    getEnvInt("DB_MAX_CONNECTIONS", 25),
		DBConnectionTimeout: getEnvDuration("DB_CONNECTION_TIMEOUT", 30*time.Second),
		AutoMigrate:         getEnvBool("AUTO_MIGRATE", true),
		IngestionBaseURL:    getEnv("INGESTION_BASE_URL", "http://localhost:8080/v1"),
		IngestionToken:      getEnv("INGESTION_TOKEN", ""),
		IngestionTimeout:    getEnvDuration("INGESTION_TIMEOUT", 15*time.Second),
		ClerkPublishableKey: getEnv("CLERK_PUBLISHABLE_KEY", ""),
		ClerkSecretKey:      getEnv("CLERK_SECRET_KEY", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", "sa-east-1"),
		AWSEndpoint:         getEnv("AWS_ENDPOINT", ""),
		MaxInstallments:     getEnvInt("MAX_INSTALLMENTS", 24),
		ImportBatchTag:      getEnv("IMPORT_BATCH_TAG", "VENDAS"),
		ImportChannel:       getEnv("IMPORT_CHANNEL", "planilha"),
		ImportDefaultClient: getEnv("IMPORT_DEFAULT_CLIENT", "Consumidor Final"),
		ImportSKUPrefix:     getEnv("IMPORT_SKU_PREFIX", "DESK"),
		ImportClientAliases: getEnvMap("IMPORT_CLIENT_ALIASES"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" && cfg.DBHost == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}
	if cfg.MaxInstallments < 1 {
		return nil, fmt.Errorf("MAX_INSTALLMENTS must be at least 1")
	}
	if cfg.ClerkSecretKey == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("CLERK_SECRET_KEY is required in production")
	}
	if cfg.S3Bucket == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("S3_BUCKET is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins over the
// individual DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// getEnvMap parses "Alias=Canonical;Other=Name". Malformed pairs are ignored.
func getEnvMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(os.Getenv(key), ";") {
		alias, canonical, ok := strings.Cut(pair, "=")
		alias, canonical = strings.TrimSpace(alias), strings.TrimSpace(canonical)
		if !ok || alias == "" || canonical == "" {
			continue
		}
		out[alias] = canonical
	}
	return out
}
