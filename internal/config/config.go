package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	CompreFace CompreFaceConfig
	Storage    StorageConfig
	Web        WebConfig
}

type CompreFaceConfig struct {
	URL     string        // CompreFace base URL (e.g., http://localhost:8000)
	APIKey  string        // recognition service API key
	Timeout time.Duration // per-request timeout (default 30s)
}

type StorageConfig struct {
	DataDir     string // root directory for tenant rosters and face images (default "clients")
	DatabaseURL string // PostgreSQL connection URL; when set, rosters live in Postgres instead of files
	TenantsFile string // optional tenant catalog override; empty means the embedded catalog
}

type WebConfig struct {
	Port int // defaults to 8080
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		CompreFace: CompreFaceConfig{
			URL:     os.Getenv("COMPREFACE_URL"),
			APIKey:  os.Getenv("COMPREFACE_API_KEY"),
			Timeout: time.Duration(envInt("COMPREFACE_TIMEOUT", 30)) * time.Second,
		},
		Storage: StorageConfig{
			DataDir:     envString("DATA_DIR", "clients"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			TenantsFile: os.Getenv("TENANTS_FILE"),
		},
		Web: WebConfig{
			Port: envInt("PORT", 8080),
		},
	}
}
