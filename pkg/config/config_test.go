package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var allVars = []string{
	"RAYTRACER_ADDR",
	"RAYTRACER_ALLOWED_ORIGINS",
	"RAYTRACER_WORKERS",
	"RAYTRACER_MAX_DEPTH",
	"RAYTRACER_PING_INTERVAL",
	"RAYTRACER_MAX_IMAGE_SIZE",
	"RAYTRACER_OUTPUT_DIR",
	"RAYTRACER_ARCHIVE_DIR",
	"RAYTRACER_LOG_LEVEL",
	"RAYTRACER_LOG_PATH",
	"RAYTRACER_LOG_MAX_SIZE_MB",
	"RAYTRACER_LOG_MAX_BACKUPS",
	"RAYTRACER_LOG_COMPRESS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Address != DefaultAddr {
		t.Errorf("expected default addr %q, got %q", DefaultAddr, cfg.Address)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("expected no allowed origins, got %#v", cfg.AllowedOrigins)
	}
	if cfg.Workers != 0 || cfg.MaxDepth != 0 {
		t.Errorf("expected workers and depth to defer to defaults, got %d and %d", cfg.Workers, cfg.MaxDepth)
	}
	if cfg.OutputDir != DefaultOutputDir || cfg.ArchiveDir != "" {
		t.Errorf("unexpected directories: output=%q archive=%q", cfg.OutputDir, cfg.ArchiveDir)
	}
	if cfg.PingInterval != DefaultPingInterval || cfg.MaxImageSize != DefaultMaxImageSize {
		t.Errorf("unexpected stream limits: ping=%v size=%d", cfg.PingInterval, cfg.MaxImageSize)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Path != "" || !cfg.Logging.Compress {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAYTRACER_ADDR", "127.0.0.1:9000")
	t.Setenv("RAYTRACER_GRPC_ADDR", "")
	t.Setenv("RAYTRACER_ALLOWED_ORIGINS", "https://example.com, https://demo.local")
	t.Setenv("RAYTRACER_WORKERS", "4")
	t.Setenv("RAYTRACER_MAX_DEPTH", "8")
	t.Setenv("RAYTRACER_PING_INTERVAL", "5s")
	t.Setenv("RAYTRACER_MAX_IMAGE_SIZE", "640")
	t.Setenv("RAYTRACER_ARCHIVE_DIR", "/tmp/archives")
	t.Setenv("RAYTRACER_LOG_LEVEL", "debug")
	t.Setenv("RAYTRACER_LOG_PATH", "/tmp/raytracer.log")
	t.Setenv("RAYTRACER_LOG_MAX_SIZE_MB", "10")
	t.Setenv("RAYTRACER_LOG_MAX_BACKUPS", "0")
	t.Setenv("RAYTRACER_LOG_COMPRESS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Errorf("unexpected address: %q", cfg.Address)
	}
	if cfg.GRPCAddress != "" {
		t.Errorf("expected an empty gRPC address to disable the service, got %q", cfg.GRPCAddress)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://demo.local" {
		t.Errorf("unexpected origins: %#v", cfg.AllowedOrigins)
	}
	if cfg.Workers != 4 || cfg.MaxDepth != 8 {
		t.Errorf("unexpected render settings: workers=%d depth=%d", cfg.Workers, cfg.MaxDepth)
	}
	if cfg.PingInterval != 5*time.Second || cfg.MaxImageSize != 640 {
		t.Errorf("unexpected stream limits: ping=%v size=%d", cfg.PingInterval, cfg.MaxImageSize)
	}
	if cfg.ArchiveDir != "/tmp/archives" {
		t.Errorf("unexpected archive dir: %q", cfg.ArchiveDir)
	}
	expected := LoggingConfig{Level: "debug", Path: "/tmp/raytracer.log", MaxSizeMB: 10, MaxBackups: 0, Compress: false}
	if cfg.Logging != expected {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAYTRACER_WORKERS", "-1")
	t.Setenv("RAYTRACER_MAX_DEPTH", "deep")
	t.Setenv("RAYTRACER_PING_INTERVAL", "0s")
	t.Setenv("RAYTRACER_LOG_COMPRESS", "maybe")
	t.Setenv("RAYTRACER_LOG_LEVEL", "verbose")

	_, err := Load()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	for _, key := range []string{"RAYTRACER_WORKERS", "RAYTRACER_MAX_DEPTH", "RAYTRACER_PING_INTERVAL", "RAYTRACER_LOG_COMPRESS", "RAYTRACER_LOG_LEVEL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected error to mention %s, got %v", key, err)
		}
	}
}
