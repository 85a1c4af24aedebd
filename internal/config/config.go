// Package config reads server settings from the environment.
//
// Variables:
//
//	CIGRAPH_LOG_LEVEL=debug|info|warn|error   default info
//	CIGRAPH_MAX_PIXELS=<n>                    render budget per node, default 64M
//	CIGRAPH_WORKERS=<n>                       parallel subtree evaluation, default GOMAXPROCS
//	CIGRAPH_AUTO_ORIENT=true|false            apply EXIF orientation on decode, default true
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/ironsheep/cigraph/internal/render"
)

// Environment variable names.
const (
	EnvLogLevel   = "CIGRAPH_LOG_LEVEL"
	EnvMaxPixels  = "CIGRAPH_MAX_PIXELS"
	EnvWorkers    = "CIGRAPH_WORKERS"
	EnvAutoOrient = "CIGRAPH_AUTO_ORIENT"
)

// Config holds the settings.
type Config struct {
	LogLevel   slog.Level
	MaxPixels  int64
	Workers    int
	AutoOrient bool
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		LogLevel:   slog.LevelInfo,
		MaxPixels:  render.DefaultMaxPixels,
		Workers:    runtime.GOMAXPROCS(0),
		AutoOrient: true,
	}
}

// Load reads the environment. Unset or empty variables keep their default;
// malformed ones are an error.
func Load() (Config, error) {
	cfg := Default()

	if v := os.Getenv(EnvLogLevel); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, v, err)
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv(EnvMaxPixels); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: want a positive integer", EnvMaxPixels, v)
		}
		cfg.MaxPixels = n
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: want a positive integer", EnvWorkers, v)
		}
		cfg.Workers = n
	}

	if v := os.Getenv(EnvAutoOrient); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvAutoOrient, v, err)
		}
		cfg.AutoOrient = b
	}

	return cfg, nil
}

// RenderOptions returns the renderer settings.
func (c Config) RenderOptions() render.Options {
	return render.Options{MaxPixels: c.MaxPixels, Workers: c.Workers}
}
