// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const defaultCompileConcurrency = 4

// Config holds the configuration of the deployment service.
type Config struct {
	LogLevel        string // log level: debug, info, warn, error (default "info")
	StorePath       string // path to the SQLite deployment ledger (default "cqlmap.sqlite")
	ConventionsFile string // optional YAML file overriding the mutation naming conventions

	// AllowPartial publishes schemas that compiled with errors; the failing
	// operations are simply absent.
	AllowPartial bool
	// CompileConcurrency bounds how many documents DeployAll compiles at once.
	CompileConcurrency int

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables. Invalid values
// fall back to their defaults with a warning.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:           os.Getenv("CQLMAP_LOG_LEVEL"),
		StorePath:          os.Getenv("CQLMAP_STORE_PATH"),
		ConventionsFile:    os.Getenv("CQLMAP_CONVENTIONS_FILE"),
		CompileConcurrency: defaultCompileConcurrency,
	}

	if v := os.Getenv("CQLMAP_ALLOW_PARTIAL"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("CQLMAP_ALLOW_PARTIAL=%q is not a boolean, using false", v))
		}
		cfg.AllowPartial = b
	}
	if v := os.Getenv("CQLMAP_COMPILE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("CQLMAP_COMPILE_CONCURRENCY=%q must be a positive integer, using %d", v, defaultCompileConcurrency))
		} else {
			cfg.CompileConcurrency = n
		}
	}

	// Defaults
	if cfg.StorePath == "" {
		cfg.StorePath = "cqlmap.sqlite"
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "warning", "error":
	default:
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown CQLMAP_LOG_LEVEL %q, using info", cfg.LogLevel))
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func parseBool(v string) (value, ok bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
