package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./pagetune.db" {
			t.Errorf("expected database path ./pagetune.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8471 {
			t.Errorf("expected server port 8471, got %d", config.Server.Port)
		}

		if config.Spotify.PlayerName != "Pagetune Player" {
			t.Errorf("expected player name Pagetune Player, got %s", config.Spotify.PlayerName)
		}

		if len(config.Spotify.Scopes) == 0 {
			t.Error("expected default scopes")
		}

		if config.Content.Dir != "./scraped_data" {
			t.Errorf("expected content dir ./scraped_data, got %s", config.Content.Dir)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		t.Setenv("PAGETUNE_CLIENT_ID", "from-env")
		t.Setenv("PAGETUNE_DB_PATH", "/tmp/override.db")

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Spotify.ClientID != "from-env" {
			t.Errorf("expected client_id from environment, got %s", config.Spotify.ClientID)
		}
		if config.Database.Path != "/tmp/override.db" {
			t.Errorf("expected database path from environment, got %s", config.Database.Path)
		}
	})
}
