package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application settings. Values come from flags, then
// CONLANG_* environment variables, then conlang.toml, then defaults.
type Config struct {
	Language  string `mapstructure:"language"`
	DB        string `mapstructure:"db"`
	Workers   int    `mapstructure:"workers"`
	BatchSize int    `mapstructure:"batch_size"`
	LogLevel  string `mapstructure:"log_level"`
	// Segment controls Japanese word segmentation: auto, on or off.
	Segment string `mapstructure:"segment"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		DB:        "conlang.db",
		Workers:   4,
		BatchSize: 50,
		LogLevel:  "info",
		Segment:   "auto",
	}
}

// loadConfig reads the config file (cfgFile, or conlang.toml in the working
// directory when empty) and overlays environment variables and flags.
func loadConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) (Config, error) {
	d := DefaultConfig()
	v.SetDefault("language", d.Language)
	v.SetDefault("db", d.DB)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("segment", d.Segment)

	v.SetEnvPrefix("CONLANG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("conlang")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	for key, flag := range map[string]string{
		"language":   "language",
		"db":         "db",
		"log_level":  "log-level",
		"workers":    "workers",
		"batch_size": "batch-size",
		"segment":    "segment",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.Segment {
	case "auto", "on", "off":
	default:
		return Config{}, fmt.Errorf("segment must be auto, on or off, got %q", cfg.Segment)
	}
	return cfg, nil
}
