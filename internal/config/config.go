// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the database (always absolute)
	Port         int
	DevMode      bool
	LogLevel     string
	CronSecret   string // Bearer token gating unauthenticated scheduled sync triggers
	SyncSchedule string // Cron expression (with seconds) for the scheduled sync cycle
	WindowDays   int    // Default fetch window for imports when the integration has none

	Stripe     StripeConfig
	PayPal     PayPalConfig
	Shopify    ShopifyConfig
	AdPlatform AdPlatformConfig
	BankDrop   BankDropConfig
}

// StripeConfig holds Stripe API credentials
type StripeConfig struct {
	APIKey string
}

// PayPalConfig holds PayPal REST API credentials
type PayPalConfig struct {
	ClientID string
	Secret   string
	BaseURL  string // Overridable for sandbox
}

// ShopifyConfig holds Shopify Admin API credentials
type ShopifyConfig struct {
	ShopDomain  string // e.g. "acme.myshopify.com"
	AccessToken string
}

// AdPlatformConfig holds ad platform insights API credentials
type AdPlatformConfig struct {
	AccessToken string
	AccountID   string
	BaseURL     string
}

// BankDropConfig holds the S3-compatible drop bucket for bank CSV exports
type BankDropConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // Non-empty for S3-compatible stores (MinIO, R2)
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Resolve data directory to an absolute path and make sure it exists
	dataDir := getEnv("LEDGERLINK_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CronSecret:   getEnv("CRON_SECRET", ""),
		SyncSchedule: getEnv("SYNC_SCHEDULE", "0 0 * * * *"),
		WindowDays:   getEnvAsInt("SYNC_WINDOW_DAYS", 30),
		Stripe: StripeConfig{
			APIKey: getEnv("STRIPE_API_KEY", ""),
		},
		PayPal: PayPalConfig{
			ClientID: getEnv("PAYPAL_CLIENT_ID", ""),
			Secret:   getEnv("PAYPAL_SECRET", ""),
			BaseURL:  getEnv("PAYPAL_BASE_URL", "https://api-m.paypal.com"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:  getEnv("SHOPIFY_SHOP_DOMAIN", ""),
			AccessToken: getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		},
		AdPlatform: AdPlatformConfig{
			AccessToken: getEnv("ADS_ACCESS_TOKEN", ""),
			AccountID:   getEnv("ADS_ACCOUNT_ID", ""),
			BaseURL:     getEnv("ADS_BASE_URL", "https://graph.facebook.com/v19.0"),
		},
		BankDrop: BankDropConfig{
			Bucket:          getEnv("BANK_DROP_BUCKET", ""),
			Prefix:          getEnv("BANK_DROP_PREFIX", "exports/"),
			Region:          getEnv("BANK_DROP_REGION", "auto"),
			Endpoint:        getEnv("BANK_DROP_ENDPOINT", ""),
			AccessKeyID:     getEnv("BANK_DROP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BANK_DROP_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
// Provider credentials are intentionally optional at startup: each adapter
// checks its own credentials before any network call and fails that run with
// a configuration error instead of blocking the whole service.
func (c *Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("SYNC_WINDOW_DAYS must be positive, got %d", c.WindowDays)
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

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
