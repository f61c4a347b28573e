package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the client settings. Everything has a working default so a
// fresh install connects to a local dev server with no file at all.
type Config struct {
	ServerURL string
	Identity  string
	Theme     string
	PrefsPath string
}

const (
	defaultServerURL = "http://localhost:5000"
	defaultTheme     = "auto"
)

// Dir returns the config directory, honoring ROADMAP_CONFIG_DIR for tests and
// portable installs.
func Dir() (string, error) {
	if d := strings.TrimSpace(os.Getenv("ROADMAP_CONFIG_DIR")); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "roadmap"), nil
}

// Load reads config.yaml from the config directory, layered under ROADMAP_*
// environment variables. A missing file is not an error.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(dir)
}

func loadFrom(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("server_url", defaultServerURL)
	v.SetDefault("theme", defaultTheme)
	v.SetDefault("identity", "")
	v.SetDefault("prefs_path", filepath.Join(dir, "prefs.sqlite"))

	v.SetEnvPrefix("ROADMAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		ServerURL: strings.TrimRight(strings.TrimSpace(v.GetString("server_url")), "/"),
		Identity:  strings.TrimSpace(v.GetString("identity")),
		Theme:     strings.TrimSpace(v.GetString("theme")),
		PrefsPath: v.GetString("prefs_path"),
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	switch cfg.Theme {
	case "auto", "dark", "light":
	default:
		cfg.Theme = defaultTheme
	}
	return cfg, nil
}

// Write persists the given settings as config.yaml, creating the directory if
// needed. Used by `roadmap config set`.
func Write(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("server_url", cfg.ServerURL)
	v.Set("identity", cfg.Identity)
	v.Set("theme", cfg.Theme)
	if cfg.PrefsPath != "" {
		v.Set("prefs_path", cfg.PrefsPath)
	}
	if err := v.WriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
