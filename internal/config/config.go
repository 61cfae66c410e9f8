package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Display modes accepted by query.display_mode
const (
	DisplaySmart = "smart"
	DisplayList  = "list"
	DisplayTUI   = "tui"
)

// Config represents the application configuration
type Config struct {
	Paths     PathsConfig   `mapstructure:"paths"`
	Logging   LoggingConfig `mapstructure:"logging"`
	Query     QueryConfig   `mapstructure:"query"`
	UI        UIConfig      `mapstructure:"ui"`
	Backend   BackendConfig `mapstructure:"backend"`
	Remove    RemoveConfig  `mapstructure:"remove"`
	AliasMode bool          `mapstructure:"alias_mode"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	DBFile    string `mapstructure:"db_file"`
	LogFile   string `mapstructure:"log_file"`
	IndexFile string `mapstructure:"index_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// QueryConfig tunes the fuzzy resolver
type QueryConfig struct {
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	DisplayMode    string  `mapstructure:"display_mode"`
}

// UIConfig tunes the interactive selector
type UIConfig struct {
	SmallListSize int `mapstructure:"small_list_size"`
	DetailsLines  int `mapstructure:"details_lines"`
}

// BackendConfig names the package manager executables
type BackendConfig struct {
	InstallCmd   string `mapstructure:"install_cmd"`
	RemoveCmd    string `mapstructure:"remove_cmd"`
	QueryCmd     string `mapstructure:"query_cmd"`
	PrivilegeCmd string `mapstructure:"privilege_cmd"`
	SyncRepos    bool   `mapstructure:"sync_repos"`
}

// RemoveConfig holds the default removal flags
type RemoveConfig struct {
	Recursive bool `mapstructure:"recursive"`
	Orphans   bool `mapstructure:"orphans"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "xpkg"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("XPKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	cfg.Paths.IndexFile = expandPath(cfg.Paths.IndexFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode into Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects values the resolver and selector cannot work with
func (c *Config) Validate() error {
	if c.Query.FuzzyThreshold < 0 || c.Query.FuzzyThreshold > 1 {
		return fmt.Errorf("query.fuzzy_threshold must be within [0, 1], got %v", c.Query.FuzzyThreshold)
	}

	switch strings.ToLower(c.Query.DisplayMode) {
	case DisplaySmart, DisplayList, DisplayTUI:
	default:
		return fmt.Errorf("query.display_mode must be one of smart, list, tui, got %q", c.Query.DisplayMode)
	}

	if c.UI.SmallListSize < 0 {
		return fmt.Errorf("ui.small_list_size cannot be negative")
	}

	if c.Backend.InstallCmd == "" || c.Backend.RemoveCmd == "" || c.Backend.QueryCmd == "" {
		return fmt.Errorf("backend commands cannot be empty")
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "xpkg")
	v.SetDefault("paths.data_dir", dataDir)
	v.SetDefault("paths.db_file", filepath.Join(dataDir, "history.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, "xpkg.log"))
	v.SetDefault("paths.index_file", filepath.Join(dataDir, "index.toml"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")

	v.SetDefault("query.fuzzy_threshold", 0.3)
	v.SetDefault("query.display_mode", DisplaySmart)

	v.SetDefault("ui.small_list_size", 50)
	v.SetDefault("ui.details_lines", 12)

	v.SetDefault("backend.install_cmd", "xbps-install")
	v.SetDefault("backend.remove_cmd", "xbps-remove")
	v.SetDefault("backend.query_cmd", "xbps-query")
	v.SetDefault("backend.privilege_cmd", "sudo")
	v.SetDefault("backend.sync_repos", true)

	v.SetDefault("remove.recursive", false)
	v.SetDefault("remove.orphans", true)

	v.SetDefault("alias_mode", false)
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
