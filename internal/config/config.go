// Package config loads yadi settings from defaults, a YAML file and YADI_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/zerr"
)

const (
	// FileName is the config file name without extension.
	FileName = "config"
	// EnvPrefix prefixes environment overrides, e.g. YADI_PRIVILEGE_COMMAND.
	EnvPrefix = "YADI"
)

var (
	// ErrNotFound is returned when an explicitly requested config file does not exist.
	ErrNotFound = zerr.New("config file not found")

	// ErrLoadFailed is returned when a config file cannot be read or decoded.
	ErrLoadFailed = zerr.New("failed to load configuration")
)

// Config holds all settings.
type Config struct {
	PackageManager   string `mapstructure:"package_manager"`
	PrivilegeCommand string `mapstructure:"privilege_command"`
	AssumeYes        bool   `mapstructure:"assume_yes"`
	Manifest         string `mapstructure:"manifest"`
	Workers          int    `mapstructure:"workers"`
	LogLevel         string `mapstructure:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PackageManager:   "dnf",
		PrivilegeCommand: "sudo",
		AssumeYes:        true,
		Manifest:         "",
		Workers:          5,
		LogLevel:         "info",
	}
}

// Dir returns the directory searched for config.yaml.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", zerr.Wrap(err, "resolving config directory")
	}
	return filepath.Join(base, "yadi"), nil
}

// Load reads configuration. With an explicit path the file must exist;
// otherwise a config.yaml in Dir() is used when present.
// It returns the path of the file that was read, or "".
func Load(path string) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("package_manager", defaults.PackageManager)
	v.SetDefault("privilege_command", defaults.PrivilegeCommand)
	v.SetDefault("assume_yes", defaults.AssumeYes)
	v.SetDefault("manifest", defaults.Manifest)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", zerr.With(fmt.Errorf("%w: %w", ErrNotFound, err), "path", path)
		}
		v.SetConfigFile(path)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, "", err
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", zerr.With(fmt.Errorf("%w: %w", ErrLoadFailed, err), "path", path)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", zerr.WithStack(fmt.Errorf("%w: %w", ErrLoadFailed, err))
	}
	return &cfg, used, nil
}
