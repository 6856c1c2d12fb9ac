package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment overrides for where ih keeps its config and data.
const (
	EnvConfigPath = "IH_CONFIG_PATH"
	EnvHome       = "IH_HOME"
)

// Defaults are the paths an installation uses before a config file exists.
// The database, blob store and keys live under BaseDir (see config.NewConfig).
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves Defaults from the environment, falling back to
// ~/.config/ih.toml and ~/.local/share/ih.
func GetDefaults() (Defaults, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "ih.toml")
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "ih")
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func fromEnvOrHome(env string, rel ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for %s: %w", env, err)
	}
	return filepath.Join(append([]string{homeDir}, rel...)...), nil
}
