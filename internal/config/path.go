// Package config resolves autobudget settings from viper, the environment
// and built-in defaults, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir is the directory holding the config file, token and session database.
const Dir = "~/.config/autobudget"

// ConfigDir returns Dir with the home directory resolved.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(Dir, "~/")), nil
}

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references. The path is returned as-is when there is no home directory.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return ""
	case path == "~" || strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return os.ExpandEnv(path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
