package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Backend  BackendConfig
	Ton      TonConfig
	Database DatabaseConfig
	Flow     FlowConfig
}

// BackendConfig holds the club backend API configuration
type BackendConfig struct {
	BaseURL string
	// FallbackAuthData is used when the host environment provides no
	// attestation string. Dev mode only; ignored in prod.
	FallbackAuthData string
}

// TonConfig holds TON chain lookup configuration
type TonConfig struct {
	APIBaseURL        string
	USDTMasterAddress string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// FlowConfig holds purchase flow tuning
type FlowConfig struct {
	SessionTTLMinutes  int
	TransferTTLMinutes int
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	backendBaseURL := strings.TrimRight(getEnv("BACKEND_BASE_URL", "https://api.ppnards.com/tg-club-chip-sales-ton"), "/")
	if backendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}

	sessionTTL, _ := strconv.Atoi(getEnv("FLOW_SESSION_TTL_MINUTES", "30"))
	transferTTL, _ := strconv.Atoi(getEnv("TRANSFER_TTL_MINUTES", "5"))

	config := &Config{
		AppMode: appMode,
		Port:    getEnv("PORT", "3000"),
		Backend: BackendConfig{
			BaseURL:          backendBaseURL,
			FallbackAuthData: getEnv("DEV_FALLBACK_AUTH_DATA", ""),
		},
		Ton: TonConfig{
			APIBaseURL:        strings.TrimRight(getEnv("TON_API_BASE_URL", "https://tonapi.io/v2"), "/"),
			USDTMasterAddress: getEnv("USDT_MASTER_ADDRESS", "EQCxE6mUtQJKFnGfaROTKOt1lZbDiiX1kCixRv7Nw2Id_sDs"),
		},
		Database: loadDatabaseConfig(appMode),
		Flow: FlowConfig{
			SessionTTLMinutes:  sessionTTL,
			TransferTTLMinutes: transferTTL,
		},
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "ppn_chip_sales"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://chips.ppnards.com"
	}
	return origins
}
