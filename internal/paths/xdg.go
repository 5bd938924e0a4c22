package paths

import (
	"os"
	"path/filepath"
)

const appName = "sitectl"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func appDir(envVar string, fallbackParts ...string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, appName)
	}
	parts := append([]string{homeDir()}, fallbackParts...)
	parts = append(parts, appName)
	return filepath.Join(parts...)
}

// ConfigDir returns the sitectl config directory ($XDG_CONFIG_HOME/sitectl).
func ConfigDir() string {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the sitectl state directory ($XDG_STATE_HOME/sitectl).
// Log files live here.
func StateDir() string {
	return appDir("XDG_STATE_HOME", ".local", "state")
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LogFile returns the default rotated log file path.
func LogFile() string {
	return filepath.Join(StateDir(), "sitectl.log")
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
