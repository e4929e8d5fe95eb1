// SPDX-License-Identifier: MPL-2.0

// Package config loads toolshed configuration: where the package store and
// shims directory live, which runner shims invoke, and how the external
// restore step is launched. Values come from the config file, TOOLSHED_*
// environment variables, and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"toolshed-cli/internal/platform"
)

const (
	// AppName is the application name.
	AppName = "toolshed"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

var (
	// configFilePathOverride forces loading from a specific file (--config).
	configFilePathOverride string
	// configDirOverride lets tests redirect the config directory.
	configDirOverride string
)

// Config is the resolved toolshed configuration.
type Config struct {
	// ToolsRoot is the package store root directory.
	ToolsRoot string `mapstructure:"tools_root"`
	// ShimsDir is where launcher shims are published.
	ShimsDir string `mapstructure:"shims_dir"`
	// Runner is the runner token written into shims.
	Runner string `mapstructure:"runner"`
	// TargetFramework is written into restore project descriptors.
	TargetFramework string `mapstructure:"target_framework"`
	// RestoreCommand is the argv prefix of the external restore command.
	RestoreCommand []string `mapstructure:"restore_command"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
}

// SetConfigFilePathOverride forces Load to read the given file.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// ConfigDir returns the toolshed configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfig returns the built-in defaults. The store and shims
// directories live under ~/.toolshed so a fresh machine needs no config
// file at all.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Config{
		ToolsRoot:       filepath.Join(home, "."+AppName, "packages"),
		ShimsDir:        filepath.Join(home, "."+AppName, "bin"),
		Runner:          "dotnet",
		TargetFramework: "net8.0",
		RestoreCommand:  []string{"dotnet", "restore"},
	}, nil
}

// Load reads the configuration from the config file (if present) and the
// environment on top of the defaults. A missing config file is not an
// error.
func Load() (*Config, error) {
	defaults, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("tools_root", defaults.ToolsRoot)
	v.SetDefault("shims_dir", defaults.ShimsDir)
	v.SetDefault("runner", defaults.Runner)
	v.SetDefault("target_framework", defaults.TargetFramework)
	v.SetDefault("restore_command", defaults.RestoreCommand)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFilePathOverride != "" {
		v.SetConfigFile(configFilePathOverride)
	} else {
		configDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
