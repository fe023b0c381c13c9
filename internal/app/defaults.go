package app

import (
	"fmt"
	"os"
	"path/filepath"

	"lexdesk/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - LEXDESK_CONFIG_PATH: config file location (default: ~/.config/lexdesk.toml)
//   - LEXDESK_HOME: base directory for lexdesk data (default: ~/.local/share/lexdesk)
func GetDefaults() (map[string]string, error) {
	configPath, err := fromEnvOrHome("LEXDESK_CONFIG_PATH", ".config", "lexdesk.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome("LEXDESK_HOME", ".local", "share", "lexdesk")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"keys_dir":    filepath.Join(baseDir, "keys"),
	}, nil
}

// fromEnvOrHome returns the value of env when set, otherwise the path under
// the user's home directory.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}

// LoadConfig reads the config file at the default path with environment
// overrides applied.
func LoadConfig() (*config.Config, string, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	path := defaults["config_path"]
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
