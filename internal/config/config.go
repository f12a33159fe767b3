// Package config loads and persists the TOML configuration file: global
// defaults plus the set of monitored accounts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dlbot/dlbot/internal/model"
	"github.com/dlbot/dlbot/internal/platform"
)

const (
	configDirName  = "dlbot"
	configFileName = "config.toml"

	defaultMaxParallel = 2
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
)

// Notify holds ntfy push notification settings. An empty topic disables
// notifications.
type Notify struct {
	Server string `toml:"server,omitempty"`
	Topic  string `toml:"topic,omitempty"`
}

// Config is the on-disk configuration.
type Config struct {
	DownloadDir   string          `toml:"download_dir"`
	CheckInterval int             `toml:"check_interval"` // seconds, default for accounts
	MaxParallel   int             `toml:"max_parallel"`
	LogLevel      string          `toml:"log_level"`
	LogFormat     string          `toml:"log_format"`
	Notify        Notify          `toml:"notify,omitempty"`
	Accounts      []model.Account `toml:"accounts"`
}

// Default returns a configuration with sane defaults and no accounts.
func Default() *Config {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		dir = "downloads"
	}
	return &Config{
		DownloadDir:   dir,
		CheckInterval: int(model.DefaultCheckInterval.Seconds()),
		MaxParallel:   defaultMaxParallel,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}
}

// DefaultPath returns the standard config file location,
// ~/.config/dlbot/config.toml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// Load reads the config file at path. A missing file yields defaults rather
// than an error so first runs need no setup step.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// normalize fills per-account gaps from global defaults and clamps bounds.
func (c *Config) normalize() {
	if c.MaxParallel < 1 {
		c.MaxParallel = defaultMaxParallel
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = int(model.DefaultCheckInterval.Seconds())
	}
	for i := range c.Accounts {
		a := &c.Accounts[i]
		if a.DownloadDir == "" {
			a.DownloadDir = c.DownloadDir
		}
		if a.CheckInterval <= 0 {
			a.CheckInterval = c.CheckInterval
		}
		a.Normalize()
	}
}

// Validate rejects configurations the engine cannot act on.
func (c *Config) Validate() error {
	if c.DownloadDir == "" {
		return errors.New("download_dir must be set")
	}
	seen := make(map[string]struct{}, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Name == "" {
			return errors.New("account name must be set")
		}
		if a.URL == "" {
			return fmt.Errorf("account %q: url must be set", a.Name)
		}
		if _, err := model.ParsePlatform(string(a.Platform)); err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("duplicate account name %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// AddAccount appends an account, detecting the platform from its URL when
// unset. Duplicate names are rejected.
func (c *Config) AddAccount(acct model.Account) error {
	if acct.Name == "" {
		return errors.New("account name must be set")
	}
	if _, ok := c.GetAccount(acct.Name); ok {
		return fmt.Errorf("account %q already exists", acct.Name)
	}
	if acct.Platform == "" {
		p, ok := model.DetectPlatform(acct.URL)
		if !ok {
			return fmt.Errorf("cannot detect platform from %q, set it explicitly", acct.URL)
		}
		acct.Platform = p
	}
	if acct.DownloadDir == "" {
		acct.DownloadDir = c.DownloadDir
	}
	if acct.CheckInterval <= 0 {
		acct.CheckInterval = c.CheckInterval
	}
	acct.Normalize()
	c.Accounts = append(c.Accounts, acct)
	return nil
}

// RemoveAccount deletes an account by name. Returns false when absent.
func (c *Config) RemoveAccount(name string) bool {
	for i, a := range c.Accounts {
		if a.Name == name {
			c.Accounts = append(c.Accounts[:i], c.Accounts[i+1:]...)
			return true
		}
	}
	return false
}

// GetAccount looks an account up by name.
func (c *Config) GetAccount(name string) (model.Account, bool) {
	for _, a := range c.Accounts {
		if a.Name == name {
			return a, true
		}
	}
	return model.Account{}, false
}

// UpdateAccount replaces the account with the same name. Returns false when
// absent.
func (c *Config) UpdateAccount(acct model.Account) bool {
	for i, a := range c.Accounts {
		if a.Name == acct.Name {
			acct.Normalize()
			c.Accounts[i] = acct
			return true
		}
	}
	return false
}
