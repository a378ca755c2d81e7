// Package config loads the application configuration from an optional
// YAML file, VOKAB_* environment variables and command-line flags, in
// that order of precedence (flags win).
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is stripped from environment variables before they are
// mapped onto config keys (VOKAB_BATCH_LIMIT -> batch-limit).
const envPrefix = "VOKAB_"

// Config holds everything the process needs to run.
type Config struct {
	StorePath           string  `koanf:"store-path" validate:"required"`
	ReviewLogPath       string  `koanf:"review-log-path" validate:"required"`
	CacheDir            string  `koanf:"cache-dir" validate:"required"`
	ListenAddr          string  `koanf:"listen-addr" validate:"required,hostname_port"`
	BatchLimit          int     `koanf:"batch-limit" validate:"gte=1,lte=100"`
	SimilarityThreshold float64 `koanf:"similarity-threshold" validate:"gt=0,lte=1"`
	LogLevel            string  `koanf:"log-level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		StorePath:           "data/phrases.json",
		ReviewLogPath:       "data/reviews.db",
		CacheDir:            "data/sources",
		ListenAddr:          "127.0.0.1:8765",
		BatchLimit:          30,
		SimilarityThreshold: 0.6,
		LogLevel:            "info",
	}
}

// Flags returns the flag set whose names double as config keys.
func Flags() *pflag.FlagSet {
	d := Default()
	f := pflag.NewFlagSet("vokab", pflag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.String("store-path", d.StorePath, "path of the phrase store file")
	f.String("review-log-path", d.ReviewLogPath, "path of the review history database")
	f.String("cache-dir", d.CacheDir, "directory for git source checkouts")
	f.String("listen-addr", d.ListenAddr, "HTTP listen address")
	f.Int("batch-limit", d.BatchLimit, "due phrases fetched per review batch")
	f.Float64("similarity-threshold", d.SimilarityThreshold, "duplicate-detection threshold (0..1]")
	f.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
	f.String("ingest", "", "ingest phrase lists from a path or git URL, then exit")
	return f
}

// Load merges defaults, the optional YAML file, environment variables
// and flags, then validates the result.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts the configured level name to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
