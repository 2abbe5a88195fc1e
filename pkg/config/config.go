package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends understood by LEDGER_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Port       string
	LogLevel   string
	Backend    string
	DSN        string
	FilePath   string
	StorageKey string
	SeedSample bool
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)
	return NewConfig()
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	seed, err := strconv.ParseBool(getEnv("SEED_SAMPLE", "false"))
	if err != nil {
		return nil, fmt.Errorf("SEED_SAMPLE must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Backend:    strings.ToLower(getEnv("LEDGER_BACKEND", BackendSQLite)),
		DSN:        getEnv("LEDGER_DSN", "emiledger.db"),
		FilePath:   getEnv("LEDGER_FILE", "data/ledger.json"),
		StorageKey: getEnv("STORAGE_KEY", "mobixpress_customers_v1"),
		SeedSample: seed,
	}

	switch cfg.Backend {
	case BackendSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("LEDGER_DSN is required for the sqlite backend")
		}
	case BackendFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("LEDGER_FILE is required for the file backend")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.Backend)
	}
	if cfg.StorageKey == "" {
		return nil, fmt.Errorf("STORAGE_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
