package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingKey is returned when a required setting has no value
var ErrMissingKey = errors.New("missing required configuration key")

// Config holds all application configuration
type Config struct {
	// Log configuration
	LogLevel string

	// Remote host the logs are collected from
	Remote RemoteConfig

	// Local directories and discovery patterns
	LogSources LogSourcesConfig

	// Export targets
	Export ExportConfig

	// Performance Configuration
	Performance PerformanceConfig
}

// RemoteConfig contains the SFTP connection settings.
// Host, Username, Password and Path have no defaults.
type RemoteConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	KnownHostsPath string // empty disables host key verification
	Path           string
	Timeout        time.Duration
}

// LogSourcesConfig contains the local log directories
type LogSourcesConfig struct {
	AccessDir     string
	ErrorDir      string
	AccessPattern string
	ErrorPattern  string
}

// ExportConfig contains the output locations
type ExportConfig struct {
	AccessCSVPath string
	ErrorCSVPath  string
	SQLitePath    string // empty disables the SQLite export
}

// PerformanceConfig contains performance tuning settings
type PerformanceConfig struct {
	WorkerPoolSize int
}

// Load reads configuration from the given .env files (default ".env") and environment variables
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// Try to load .env file (ignore error if file doesn't exist)
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Remote: RemoteConfig{
			Host:           os.Getenv("SFTP_HOST"),
			Port:           getEnvAsInt("SFTP_PORT", 22),
			Username:       os.Getenv("SFTP_USERNAME"),
			Password:       os.Getenv("SFTP_PASSWORD"),
			KnownHostsPath: os.Getenv("SFTP_KNOWN_HOSTS"),
			Path:           os.Getenv("REMOTE_LOG_PATH"),
			Timeout:        getEnvAsDuration("SFTP_TIMEOUT", 30*time.Second),
		},
		LogSources: LogSourcesConfig{
			AccessDir:     getEnv("ACCESS_LOG_DIR", "logs/access"),
			ErrorDir:      getEnv("ERROR_LOG_DIR", "logs/error"),
			AccessPattern: getEnv("ACCESS_LOG_PATTERN", "*.log.*"),
			ErrorPattern:  getEnv("ERROR_LOG_PATTERN", "*.log"),
		},
		Export: ExportConfig{
			AccessCSVPath: getEnv("ACCESS_CSV_PATH", "dataframes/access/all_access_logs_combined.csv"),
			ErrorCSVPath:  getEnv("ERROR_CSV_PATH", "dataframes/error/all_error_logs_combined.csv"),
			SQLitePath:    os.Getenv("SQLITE_EXPORT_PATH"),
		},
		Performance: PerformanceConfig{
			WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 4),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate reports every required remote setting that is empty
func (r RemoteConfig) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"SFTP_HOST", r.Host},
		{"SFTP_USERNAME", r.Username},
		{"SFTP_PASSWORD", r.Password},
		{"REMOTE_LOG_PATH", r.Path},
	}

	missing := []string{}
	for _, req := range required {
		if req.value == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("invalid SFTP_PORT %d", r.Port)
	}
	return nil
}

// Helper functions to read environment variables with defaults

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
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
