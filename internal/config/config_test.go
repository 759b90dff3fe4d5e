package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here
	t.Setenv("ACCESS_LOG_DIR", "")
	t.Setenv("WORKER_POOL_SIZE", "")
	t.Setenv("SFTP_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogSources.AccessDir != "logs/access" {
		t.Errorf("Expected default access dir, got '%s'", cfg.LogSources.AccessDir)
	}
	if cfg.LogSources.AccessPattern != "*.log.*" || cfg.LogSources.ErrorPattern != "*.log" {
		t.Errorf("Unexpected default patterns %q %q", cfg.LogSources.AccessPattern, cfg.LogSources.ErrorPattern)
	}
	if cfg.Performance.WorkerPoolSize != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Performance.WorkerPoolSize)
	}
	if cfg.Remote.Port != 22 {
		t.Errorf("Expected port 22, got %d", cfg.Remote.Port)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "collector.env")
	content := "SFTP_HOST=logs.example.com\nSFTP_PORT=2222\nSFTP_TIMEOUT=5s\nWORKER_POOL_SIZE=notanumber\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set
	for _, key := range []string{"SFTP_HOST", "SFTP_PORT", "SFTP_TIMEOUT", "WORKER_POOL_SIZE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Remote.Host != "logs.example.com" {
		t.Errorf("Expected host from env file, got '%s'", cfg.Remote.Host)
	}
	if cfg.Remote.Port != 2222 {
		t.Errorf("Expected port 2222, got %d", cfg.Remote.Port)
	}
	if cfg.Remote.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.Remote.Timeout)
	}
	if cfg.Performance.WorkerPoolSize != 4 {
		t.Errorf("Expected invalid value to fall back to 4, got %d", cfg.Performance.WorkerPoolSize)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Error("Expected an error for an explicit env file that does not exist")
	}
}

func TestRemoteConfig_Validate(t *testing.T) {
	err := RemoteConfig{Host: "h", Port: 22}.Validate()
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("Expected ErrMissingKey, got %v", err)
	}
	for _, key := range []string{"SFTP_USERNAME", "SFTP_PASSWORD", "REMOTE_LOG_PATH"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected %s to be listed in %q", key, err.Error())
		}
	}
	if strings.Contains(err.Error(), "SFTP_HOST") {
		t.Errorf("Did not expect SFTP_HOST in %q", err.Error())
	}

	ok := RemoteConfig{Host: "h", Port: 22, Username: "u", Password: "p", Path: "/var/log/nginx"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	ok.Port = 70000
	if err := ok.Validate(); err == nil {
		t.Error("Expected an error for an out of range port")
	}
}
