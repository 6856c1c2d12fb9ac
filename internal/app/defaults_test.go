package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name       string
		configPath string
		ihHome     string
		want       Defaults
	}{
		{
			name:       "environment overrides",
			configPath: "/srv/ih/ih.toml",
			ihHome:     "/srv/ih/data",
			want:       Defaults{ConfigPath: "/srv/ih/ih.toml", BaseDir: "/srv/ih/data", LogDir: "/srv/ih/data/log"},
		},
		{
			name:   "only data dir overridden",
			ihHome: "/var/lib/ih",
			want: Defaults{
				ConfigPath: filepath.Join(home, ".config", "ih.toml"),
				BaseDir:    "/var/lib/ih",
				LogDir:     "/var/lib/ih/log",
			},
		},
		{
			name: "home directory fallback",
			want: Defaults{
				ConfigPath: filepath.Join(home, ".config", "ih.toml"),
				BaseDir:    filepath.Join(home, ".local", "share", "ih"),
				LogDir:     filepath.Join(home, ".local", "share", "ih", "log"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigPath, tt.configPath)
			t.Setenv(EnvHome, tt.ihHome)

			got, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
