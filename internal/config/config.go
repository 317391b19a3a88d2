package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds backend API configuration
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SessionConfig holds the persisted sign-in state
type SessionConfig struct {
	AccessToken string `mapstructure:"access_token"`
	Email       string `mapstructure:"email"` // display only
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme       string `mapstructure:"theme"`
	DefaultView string `mapstructure:"default_view"`
	PageSize    int    `mapstructure:"page_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.shelfmark.app",
		},
		UI: UIConfig{
			Theme:       "default",
			DefaultView: "shelf",
			PageSize:    20,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelfmark", "shelfmark.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelfmark", "shelfmark.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelfmark")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shelfmark")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shelfmark", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelfmark", "cache")
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("SHELFMARK")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveSession persists the access token and account email after login
func SaveSession(token, email string) error {
	viper.Set("session.access_token", token)
	viper.Set("session.email", email)
	return writeConfig()
}

// ClearSession removes the persisted sign-in state
func ClearSession() error {
	viper.Set("session.access_token", "")
	viper.Set("session.email", "")
	return writeConfig()
}

func writeConfig() error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SessionStore exposes session persistence as an injectable value for
// code that should not depend on this package's globals.
type SessionStore struct{}

func (SessionStore) SaveSession(token, email string) error { return SaveSession(token, email) }
func (SessionStore) ClearSession() error                   { return ClearSession() }

// SignedIn returns true if an access token is stored
func (c *Config) SignedIn() bool {
	return c.Session.AccessToken != ""
}

// CachePath returns the cache directory path
func CachePath() string {
	return defaultCachePath()
}

// ClearCache removes all cached data
func ClearCache() error {
	if err := os.RemoveAll(defaultCachePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
