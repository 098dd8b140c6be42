package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/tradebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, tradebook.DefaultLimits, cfg.Limits())

	opts := cfg.Options()
	assert.Equal(t, tradebook.Cash, opts.Method)
	assert.Equal(t, tradebook.QuantityWeighted, opts.Weighting)
	assert.Equal(t, tradebook.Reject, opts.Excess)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "accrual", modify: func(c *Config) { c.Journal.AccountingMethod = "accrual" }},
		{name: "unbounded lots", modify: func(c *Config) { c.Journal.MaxEntries, c.Journal.MaxExits = 0, 0 }},
		{name: "sqlite", modify: func(c *Config) { c.Store.Backend, c.Store.Path = "sqlite", "books.db" }},
		{name: "redis", modify: func(c *Config) { c.Store.Backend, c.Store.Addr = "redis", "localhost:6379" }},
		{name: "http quotes", modify: func(c *Config) { c.Quote.Provider, c.Quote.URL, c.Quote.Path = "http", "https://q/{symbol}", "$.last" }},
		{name: "no currency", modify: func(c *Config) { c.Journal.Currency = "" }, wantErr: true},
		{name: "unknown method", modify: func(c *Config) { c.Journal.AccountingMethod = "mark-to-market" }, wantErr: true},
		{name: "unknown weighting", modify: func(c *Config) { c.Journal.PartialWeighting = "time" }, wantErr: true},
		{name: "negative limits", modify: func(c *Config) { c.Journal.MaxExits = -1 }, wantErr: true},
		{name: "unknown policy", modify: func(c *Config) { c.Journal.ExcessExits = "ignore" }, wantErr: true},
		{name: "sqlite without path", modify: func(c *Config) { c.Store.Backend, c.Store.Path = "sqlite", "" }, wantErr: true},
		{name: "redis without addr", modify: func(c *Config) { c.Store.Backend = "redis" }, wantErr: true},
		{name: "unknown backend", modify: func(c *Config) { c.Store.Backend = "etcd" }, wantErr: true},
		{name: "http without path", modify: func(c *Config) { c.Quote.Provider = "http" }, wantErr: true},
		{name: "unknown provider", modify: func(c *Config) { c.Quote.Provider = "yahoo" }, wantErr: true},
		{name: "negative rate", modify: func(c *Config) { c.Quote.RatePerSecond = -1 }, wantErr: true},
		{name: "log format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"tradebook.yaml", "tradebook.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Journal.AccountingMethod = "accrual"
			cfg.Store.Backend = "sqlite"
			cfg.Store.Path = "books.db"
			cfg.Store.Password = "secret"
			require.NoError(t, cfg.SaveToFile(path))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "secret")

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, "accrual", loaded.Journal.AccountingMethod)
			assert.Equal(t, "sqlite", loaded.Store.Backend)
			assert.Equal(t, "books.db", loaded.Store.Path)
		})
	}
}

func TestLoadFromFile_PartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("journal:\n  currency: USD\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Journal.Currency)
	assert.Equal(t, "cash", cfg.Journal.AccountingMethod)
	assert.Equal(t, 3, cfg.Journal.MaxEntries)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("store:\n  backend: etcd\n"), 0o644))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "store.backend")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvKiteAPIKey, "key")
	t.Setenv(EnvKiteAccessToken, "token")
	t.Setenv(EnvRedisPassword, "pw")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "key", cfg.Quote.APIKey)
	assert.Equal(t, "token", cfg.Quote.AccessToken)
	assert.Equal(t, "pw", cfg.Store.Password)
}
