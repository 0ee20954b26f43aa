package config

import (
	"os"
	"path/filepath"
)

// AppName is used for the config, cache and state directory names.
const AppName = "timeline"

// GetAppDir returns the root directory for settings and secrets.
// TIMELINE_HOME overrides the OS default.
func GetAppDir() string {
	if dir := os.Getenv("TIMELINE_HOME"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName)
}

// GetDefaultCacheDir returns where the three fetched resources are kept.
func GetDefaultCacheDir() string {
	return filepath.Join(GetAppDir(), "cache")
}

// GetStateDir returns the directory for the history database, lock and debug log.
func GetStateDir() string {
	return filepath.Join(GetAppDir(), "state")
}
