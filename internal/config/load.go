package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < preset < file < flags.
func Load() (*Config, error) {
	cfg := Default()
	if name := PresetName(); name != "" {
		p, err := Preset(name)
		if err != nil {
			return nil, err
		}
		cfg = p
	}

	// Explicit path takes priority over the search locations.
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the viewer cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Animation.TickMS <= 0 {
		return fmt.Errorf("animation.tick_ms must be positive, got %d", c.Animation.TickMS)
	}
	switch c.Animation.Sampling {
	case "", "bracket", "index":
	default:
		return fmt.Errorf("animation.sampling %q: want bracket or index", c.Animation.Sampling)
	}
	switch c.Animation.TickPolicy {
	case "", "free", "wrap":
	default:
		return fmt.Errorf("animation.tick_policy %q: want free or wrap", c.Animation.TickPolicy)
	}
	if c.Scene.Floor.Enabled && c.Scene.Floor.Tile <= 0 {
		return fmt.Errorf("scene.floor.tile must be positive, got %d", c.Scene.Floor.Tile)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./rigview.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "rigview")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rigview")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "rigview")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "rigview")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
