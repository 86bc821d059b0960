package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddr is the HTTP address the web server listens on
	DefaultAddr = ":8080"
	// DefaultGRPCAddr is the address of the gRPC health service. Empty disables it.
	DefaultGRPCAddr = ":8081"
	// DefaultOutputDir is where the CLI writes rendered images
	DefaultOutputDir = "output"
	// DefaultPingInterval controls the keepalive cadence for WebSocket streams
	DefaultPingInterval = 30 * time.Second
	// DefaultMaxImageSize bounds the width and height accepted by the web server
	DefaultMaxImageSize = 4000

	// DefaultLogLevel controls log verbosity
	DefaultLogLevel = "info"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation
	DefaultLogMaxSizeMB = 50
	// DefaultLogMaxBackups limits retained rotated log files
	DefaultLogMaxBackups = 5
	// DefaultLogCompress toggles gzip compression for rotated log files
	DefaultLogCompress = true
)

// ErrInvalidConfig is wrapped by every error Load returns
var ErrInvalidConfig = errors.New("invalid configuration")

// Config captures the runtime settings shared by the CLI and the web server
type Config struct {
	Address        string
	GRPCAddress    string
	AllowedOrigins []string
	PingInterval   time.Duration
	MaxImageSize   int
	Workers        int // 0 means one per CPU
	MaxDepth       int // 0 keeps the scene's own limit
	OutputDir      string
	ArchiveDir     string // empty disables render archives
	Logging        LoggingConfig
}

// LoggingConfig captures structured logging options
type LoggingConfig struct {
	Level      string
	Path       string // empty logs to stderr only
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// Load reads the configuration from RAYTRACER_* environment variables,
// applying defaults and reporting every invalid override at once
func Load() (*Config, error) {
	cfg := &Config{
		Address:        getString("RAYTRACER_ADDR", DefaultAddr),
		GRPCAddress:    DefaultGRPCAddr,
		AllowedOrigins: parseList(os.Getenv("RAYTRACER_ALLOWED_ORIGINS")),
		PingInterval:   DefaultPingInterval,
		MaxImageSize:   DefaultMaxImageSize,
		OutputDir:      getString("RAYTRACER_OUTPUT_DIR", DefaultOutputDir),
		ArchiveDir:     strings.TrimSpace(os.Getenv("RAYTRACER_ARCHIVE_DIR")),
		Logging: LoggingConfig{
			Level:      getString("RAYTRACER_LOG_LEVEL", DefaultLogLevel),
			Path:       strings.TrimSpace(os.Getenv("RAYTRACER_LOG_PATH")),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			Compress:   DefaultLogCompress,
		},
	}

	// An explicitly empty value turns the gRPC health service off
	if raw, ok := os.LookupEnv("RAYTRACER_GRPC_ADDR"); ok {
		cfg.GRPCAddress = strings.TrimSpace(raw)
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_WORKERS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_WORKERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Workers = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_MAX_DEPTH")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_MAX_DEPTH must be a non-negative integer, got %q", raw))
		} else {
			cfg.MaxDepth = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_PING_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_MAX_IMAGE_SIZE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_MAX_IMAGE_SIZE must be a positive integer, got %q", raw))
		} else {
			cfg.MaxImageSize = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYTRACER_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("RAYTRACER_LOG_LEVEL must be debug, info, warn or error, got %q", cfg.Logging.Level))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			values = append(values, item)
		}
	}
	return values
}
