// Package config loads and persists the agent's process-wide Agent State:
// the default account timeout, the no_autoload flag, and the default
// confirmation policy. It is distinct from an Account Record's own
// per-account config, which is owned by the out-of-process Client
// Frontend and never persisted here.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk Agent State.
type Config struct {
	// DefaultTimeoutSeconds is the account death offset used by add/gen
	// when the request omits one.
	DefaultTimeoutSeconds int64 `yaml:"default_timeout_seconds" mapstructure:"default_timeout_seconds"`

	// NoAutoload disables autoload prompts on access_token for accounts
	// not currently loaded.
	NoAutoload bool `yaml:"no_autoload" mapstructure:"no_autoload"`

	// ConfirmDefault is the dispatcher-wide confirmation default; an
	// individual account's confirmation_required flag can still force a
	// confirmation even when this is false.
	ConfirmDefault bool `yaml:"confirm_default" mapstructure:"confirm_default"`
}

// Default returns the Agent State used when no config file exists yet.
func Default() *Config {
	return &Config{
		DefaultTimeoutSeconds: 0,
		NoAutoload:            false,
		ConfirmDefault:        false,
	}
}

// DirPath returns the directory the Agent State config file lives in.
func DirPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("oidcd"))
}

// FilePath returns the Agent State config file path.
func FilePath() (string, error) {
	dir, err := DirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadOrCreate loads the Agent State config via viper, creating it with
// defaults if it doesn't exist yet.
func LoadOrCreate() (*Config, error) {
	path, err := FilePath()
	if err != nil {
		return nil, err
	}
	return LoadOrCreateWithPath(path)
}

// LoadOrCreateWithPath is LoadOrCreate with an explicit path, for testing.
func LoadOrCreateWithPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := SaveWithPath(cfg, path); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists cfg to the default Agent State path.
func Save(cfg *Config) error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	return SaveWithPath(cfg, path)
}

// SaveWithPath persists cfg to an explicit path, for testing.
func SaveWithPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
