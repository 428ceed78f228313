package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path.
	EnvConfigPath = "NETWATCH_CONFIG"
	// ConfigFileName is the default config file name in the working directory.
	ConfigFileName = "network-vis.yaml"
	// ConfigDirName is the config directory name under XDG/HOME/etc.
	ConfigDirName = "network-vis"
)

// FindConfigPath searches for a config file in priority order:
//  1. $NETWATCH_CONFIG (explicit path)
//  2. ./network-vis.yaml (working directory)
//  3. ~/.config/network-vis/config.yaml
//  4. /etc/network-vis/config.yaml
//
// Returns the empty string if none is found.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	systemPath := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(systemPath) {
		return systemPath
	}

	return ""
}

// DefaultConfigPath returns the preferred location for a new config file.
func DefaultConfigPath() string {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the config file's parent directory if absent.
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
