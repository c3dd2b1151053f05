package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig configures `ledger tui`.
type ClientConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PrefsPath      string        `mapstructure:"prefs_path"`
	LogFile        string        `mapstructure:"log_file"`
}

// ClientConfigPath is the file LoadClient reads when LEDGER_CONFIG is
// unset.
func ClientConfigPath() string {
	if p := os.Getenv("LEDGER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configHome(), "ledger", "config.toml")
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

// LoadClient reads the client configuration from file and env. Env var
// overrides use prefix LEDGER_. A missing file is not an error.
func LoadClient() (ClientConfig, error) {
	return loadClient(viper.New(), ClientConfigPath())
}

// LoadClientFrom is LoadClient reading path instead of the default file.
func LoadClientFrom(path string) (ClientConfig, error) {
	return loadClient(viper.New(), path)
}

func loadClient(v *viper.Viper, path string) (ClientConfig, error) {
	dir := filepath.Join(configHome(), "ledger")
	v.SetDefault("server_url", "http://localhost:8081")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("prefs_path", filepath.Join(dir, "prefs.toml"))
	v.SetDefault("log_file", filepath.Join(dir, "tui.log"))

	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if !isMissingFile(path) {
		if err := v.ReadInConfig(); err != nil {
			return ClientConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c ClientConfig
	if err := v.Unmarshal(&c); err != nil {
		return ClientConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return c, nil
}

func isMissingFile(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

// Validate checks the fields the client cannot run without.
func (c ClientConfig) Validate() error {
	var errors []string
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		errors = append(errors, fmt.Sprintf("invalid server url '%s': must start with http:// or https://", c.ServerURL))
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	}
	if c.PrefsPath == "" {
		errors = append(errors, "prefs path cannot be empty")
	}
	if len(errors) > 0 {
		return fmt.Errorf("client configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SaveClient writes cfg to path, creating the directory if needed.
func SaveClient(cfg ClientConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("server_url", cfg.ServerURL)
	v.Set("request_timeout", cfg.RequestTimeout.String())
	v.Set("prefs_path", cfg.PrefsPath)
	v.Set("log_file", cfg.LogFile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
