package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/smartthings-bridge/internal/crashloop"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/config"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("STBRIDGE_CONFIG")
	defer os.Setenv("STBRIDGE_CONFIG", originalEnv)

	os.Setenv("STBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("STBRIDGE_CONFIG")
	defer os.Setenv("STBRIDGE_CONFIG", originalEnv)

	os.Unsetenv("STBRIDGE_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("STBRIDGE_CONFIG")
	defer os.Setenv("STBRIDGE_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("STBRIDGE_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestDetectionConfig verifies the YAML-to-manager settings conversion.
func TestDetectionConfig(t *testing.T) {
	cfg := &config.Config{
		CrashLoop: config.CrashLoopConfig{
			MaxCrashes:        5,
			TimeWindowMinutes: 15,
			RelevantKinds:     []string{"API_INIT_FAILURE", "WEBHOOK_START_FAILURE"},
		},
	}

	detection := detectionConfig(cfg)

	if detection.MaxCrashes != 5 {
		t.Errorf("MaxCrashes = %d, want 5", detection.MaxCrashes)
	}
	if detection.TimeWindow != 15*time.Minute {
		t.Errorf("TimeWindow = %v, want 15m", detection.TimeWindow)
	}
	if len(detection.RelevantKinds) != 2 || detection.RelevantKinds[0] != crashloop.KindAPIInitFailure {
		t.Errorf("RelevantKinds = %v", detection.RelevantKinds)
	}
}

// TestRun_SuccessfulStartupAndShutdown tests full startup with MQTT and
// InfluxDB disabled, cancelling the context to drive a clean shutdown.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
bridge:
  id: test-bridge

webhook:
  host: "127.0.0.1"
  port: 18099
  path: "/smartapp"
  direct: true
  timeouts:
    read: 30
    write: 30
    idle: 60

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("STBRIDGE_CONFIG")
	defer os.Setenv("STBRIDGE_CONFIG", originalEnv)
	os.Setenv("STBRIDGE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}
