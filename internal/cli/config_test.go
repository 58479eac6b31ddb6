package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath error: %v", err)
	}
	want := filepath.Join("/custom/config", appName, "config.toml")
	if path != want {
		t.Errorf("configPath = %q, want %q", path, want)
	}
}

func TestConfigPathHomeFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath error: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	want := filepath.Join(home, ".config", appName, "config.toml")
	if path != want {
		t.Errorf("configPath = %q, want %q", path, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("missing file should yield zero Config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `renderer = "my-mmdc"
width = 1920
height = 1080
scale = 2
timeout_seconds = 30
image_dir = "assets"
jobs = 4
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	want := Config{
		Renderer:       "my-mmdc",
		Width:          1920,
		Height:         1080,
		Scale:          2,
		TimeoutSeconds: 30,
		ImageDir:       "assets",
		Jobs:           4,
	}
	if cfg != want {
		t.Errorf("loadConfig = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	// Unset keys stay zero so the built-in defaults apply downstream.
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("jobs = 8\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Jobs != 8 {
		t.Errorf("Jobs = %d, want 8", cfg.Jobs)
	}
	if cfg.Renderer != "" || cfg.Width != 0 {
		t.Errorf("unset keys should stay zero, got %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("jobs = [not toml"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Error("malformed TOML should be an error")
	}
}
