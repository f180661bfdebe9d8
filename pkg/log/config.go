package log

import (
	"fmt"
	"strings"
)

// Config describes one process logger. Service and Version are stamped on
// every entry so lines from the HTTP and gRPC listeners stay attributable.
type Config struct {
	Level       string
	Format      string
	Service     string
	Version     string
	Environment string

	// File rotates output through lumberjack. Nil writes to stdout.
	File *FileConfig

	// Sampled keeps the first 100 identical entries per second and every
	// 100th after that.
	Sampled bool
}

type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// ForEnvironment is the preset main starts from: sampled json in production,
// debug console output everywhere else.
func ForEnvironment(service, version, environment string) Config {
	cfg := Config{
		Level:       "debug",
		Format:      "console",
		Service:     service,
		Version:     version,
		Environment: environment,
	}
	if environment == "production" {
		cfg.Level = "info"
		cfg.Format = "json"
		cfg.Sampled = true
	}
	return cfg
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level %q", c.Level)
	}

	switch strings.ToLower(c.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}

	if c.File != nil {
		if c.File.Path == "" {
			return fmt.Errorf("log file path is required")
		}
		if c.File.MaxSizeMB <= 0 || c.File.MaxAgeDays <= 0 || c.File.MaxBackups < 0 {
			return fmt.Errorf("invalid log rotation for %s", c.File.Path)
		}
	}
	return nil
}

func (c Config) production() bool {
	return c.Environment == "production"
}
