// Package config reads and writes the tradebook configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/tradebook"
	"gopkg.in/yaml.v3"
)

// Environment variables holding secrets, never written to the config file.
const (
	EnvRedisPassword   = "TRADEBOOK_REDIS_PASSWORD"
	EnvKiteAPIKey      = "KITE_API_KEY"
	EnvKiteAccessToken = "KITE_ACCESS_TOKEN"
)

// Config is the complete tradebook configuration.
type Config struct {
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Quote   QuoteConfig   `json:"quote" yaml:"quote"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// JournalConfig contains the accounting parameters.
type JournalConfig struct {
	Currency         string `json:"currency" yaml:"currency"`
	AccountingMethod string `json:"accounting_method" yaml:"accounting_method"` // cash or accrual
	PartialWeighting string `json:"partial_weighting" yaml:"partial_weighting"` // quantity or equal
	MaxEntries       int    `json:"max_entries" yaml:"max_entries"`             // 0 is unbounded
	MaxExits         int    `json:"max_exits" yaml:"max_exits"`                 // 0 is unbounded
	ExcessExits      string `json:"excess_exits" yaml:"excess_exits"`           // reject or clamp
}

// StoreConfig locates the journal.
type StoreConfig struct {
	Backend  string `json:"backend" yaml:"backend"` // memory, file, sqlite or redis
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Password string `json:"-" yaml:"-"`
}

// QuoteConfig selects the price feed used by refresh.
type QuoteConfig struct {
	Provider      string  `json:"provider" yaml:"provider"` // none, http or kite
	URL           string  `json:"url,omitempty" yaml:"url,omitempty"`
	Path          string  `json:"path,omitempty" yaml:"path,omitempty"`
	Exchange      string  `json:"exchange,omitempty" yaml:"exchange,omitempty"`
	CacheDir      string  `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `json:"burst" yaml:"burst"`
	APIKey        string  `json:"-" yaml:"-"`
	AccessToken   string  `json:"-" yaml:"-"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // zerolog level name
	Format string `json:"format" yaml:"format"` // console or json
}

// LoadFromFile loads configuration from a YAML or JSON file, then applies
// the environment.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, in JSON if the extension is
// ".json" and YAML otherwise. Secrets are never saved.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv reads the secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv(EnvKiteAPIKey); v != "" {
		c.Quote.APIKey = v
	}
	if v := os.Getenv(EnvKiteAccessToken); v != "" {
		c.Quote.AccessToken = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Journal.Currency == "" {
		errs = append(errs, errors.New("journal.currency is required"))
	}
	if _, err := tradebook.ParseAccountingMethod(c.Journal.AccountingMethod); err != nil {
		errs = append(errs, fmt.Errorf("journal.accounting_method: %w", err))
	}
	if _, err := tradebook.ParsePartialWeighting(c.Journal.PartialWeighting); err != nil {
		errs = append(errs, fmt.Errorf("journal.partial_weighting: %w", err))
	}
	if c.Journal.MaxEntries < 0 || c.Journal.MaxExits < 0 {
		errs = append(errs, errors.New("journal lot limits must not be negative"))
	}
	if _, err := tradebook.ParseExcessExitPolicy(c.Journal.ExcessExits); err != nil {
		errs = append(errs, fmt.Errorf("journal.excess_exits: %w", err))
	}

	switch c.Store.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path required for %s backend", c.Store.Backend))
		}
	case "redis":
		if c.Store.Addr == "" {
			errs = append(errs, errors.New("store.addr required for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be 'memory', 'file', 'sqlite' or 'redis', got %q", c.Store.Backend))
	}

	switch c.Quote.Provider {
	case "none", "":
	case "http":
		if c.Quote.URL == "" || c.Quote.Path == "" {
			errs = append(errs, errors.New("quote url and path required for http provider"))
		}
	case "kite":
	default:
		errs = append(errs, fmt.Errorf("quote.provider must be 'none', 'http' or 'kite', got %q", c.Quote.Provider))
	}
	if c.Quote.RatePerSecond < 0 {
		errs = append(errs, errors.New("quote.rate_per_second must not be negative"))
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be 'console' or 'json', got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			Currency:         tradebook.DefaultCurrency,
			AccountingMethod: "cash",
			PartialWeighting: "quantity",
			MaxEntries:       tradebook.DefaultLimits.MaxEntries,
			MaxExits:         tradebook.DefaultLimits.MaxExits,
			ExcessExits:      "reject",
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "./tradebook",
			Prefix:  "tradebook:",
		},
		Quote: QuoteConfig{
			Provider:      "none",
			Exchange:      "NSE",
			RatePerSecond: 3,
			Burst:         1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Limits returns the lot limits.
func (c *Config) Limits() tradebook.Limits {
	return tradebook.Limits{MaxEntries: c.Journal.MaxEntries, MaxExits: c.Journal.MaxExits}
}

// Options returns the evaluation options. The configuration must be valid.
func (c *Config) Options() tradebook.EvalOptions {
	method, _ := tradebook.ParseAccountingMethod(c.Journal.AccountingMethod)
	weighting, _ := tradebook.ParsePartialWeighting(c.Journal.PartialWeighting)
	policy, _ := tradebook.ParseExcessExitPolicy(c.Journal.ExcessExits)
	return tradebook.EvalOptions{
		Options: tradebook.Options{Method: method, Weighting: weighting},
		Excess:  policy,
	}
}
