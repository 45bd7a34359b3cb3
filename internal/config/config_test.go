package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tmp := t.TempDir()

	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid config",
			config: Config{
				Port:         "8080",
				DataDir:      filepath.Join(tmp, "data"),
				SQLiteDBPath: filepath.Join(tmp, "db", "finboard.db"),
				SessionTTL:   12 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			config: Config{
				Port:         "abc",
				DataDir:      tmp,
				SQLiteDBPath: filepath.Join(tmp, "finboard.db"),
				SessionTTL:   time.Hour,
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range",
			config: Config{
				Port:         "70000",
				DataDir:      tmp,
				SQLiteDBPath: filepath.Join(tmp, "finboard.db"),
				SessionTTL:   time.Hour,
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "empty data dir",
			config: Config{
				Port:         "8080",
				DataDir:      "",
				SQLiteDBPath: filepath.Join(tmp, "finboard.db"),
				SessionTTL:   time.Hour,
			},
			wantErr:     true,
			errorString: "data directory cannot be empty",
		},
		{
			name: "empty sqlite path",
			config: Config{
				Port:         "8080",
				DataDir:      tmp,
				SQLiteDBPath: "",
				SessionTTL:   time.Hour,
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name: "session TTL too short",
			config: Config{
				Port:         "8080",
				DataDir:      tmp,
				SQLiteDBPath: filepath.Join(tmp, "finboard.db"),
				SessionTTL:   10 * time.Second,
			},
			wantErr:     true,
			errorString: "must be at least 1 minute",
		},
		{
			name: "session TTL too long",
			config: Config{
				Port:         "8080",
				DataDir:      tmp,
				SQLiteDBPath: filepath.Join(tmp, "finboard.db"),
				SessionTTL:   30 * 24 * time.Hour,
			},
			wantErr:     true,
			errorString: "must be at most 7 days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("error %q does not contain %q", err.Error(), tt.errorString)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port = %s", cfg.Port)
	}
	if cfg.DataDir != "./user_data" {
		t.Fatalf("default data dir = %s", cfg.DataDir)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("default session TTL = %v", cfg.SessionTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("SESSION_TTL", "30m")
	cfg := Load()
	if cfg.Port != "9001" {
		t.Fatalf("port = %s", cfg.Port)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("session TTL = %v", cfg.SessionTTL)
	}
}
