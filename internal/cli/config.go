package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Config holds the optional TOML configuration. Flags override config
// values, config values override the built-in defaults. The file lives at
// $XDG_CONFIG_HOME/mermaidpix/config.toml (~/.config/mermaidpix/config.toml
// by default):
//
//	renderer = "mmdc"
//	width = 3840
//	height = 2160
//	scale = 4
//	timeout_seconds = 60
//	image_dir = "images"
//	jobs = 1
type Config struct {
	Renderer       string `toml:"renderer"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	Scale          int    `toml:"scale"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ImageDir       string `toml:"image_dir"`
	Jobs           int    `toml:"jobs"`
}

// configCommand creates the configuration inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Println(path)
			return nil
		},
	})

	return cmd
}

// configPath returns the config file location using the XDG convention.
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the config file at path. A missing file is not an error;
// it yields the zero Config so defaults apply.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
