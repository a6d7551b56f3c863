package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndValidate(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_SECRET_KEY", "secret")
	t.Setenv("SYMBOLS", "BTCUSDT,SOLUSDT")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))

	assert.Equal(t, "binance", cfg.App.Venue)
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, cfg.App.Symbols)
	assert.Equal(t, 30*time.Second, cfg.Deriv.RequestTimeout)
	assert.InDelta(t, 0.7, cfg.Signal.TechnicalWeight, 1e-12)
	require.NoError(t, ValidateConfig(&cfg))
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		var cfg Config
		require.NoError(t, envconfig.Process("", &cfg))
		cfg.Binance.APIKey = "k"
		cfg.Binance.SecretKey = "s"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"키 없음", func(c *Config) { c.Binance.APIKey = "" }},
		{"알 수 없는 거래소", func(c *Config) { c.App.Venue = "ftx" }},
		{"deriv 토큰 없음", func(c *Config) { c.App.Venue = "deriv" }},
		{"잘못된 간격", func(c *Config) { c.App.Interval = "7m" }},
		{"짧은 캔들 수", func(c *Config) { c.App.CandleLimit = 10 }},
		{"잘못된 강도", func(c *Config) { c.Signal.MinStrength = "Huge" }},
		{"리스크 범위", func(c *Config) { c.Trading.RiskPercent = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, ValidateConfig(&cfg))
		})
	}
}

func TestLoadSymbolCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	content := "symbols:\n  frxEURUSD:\n    min_size: 1\n    max_size: 5000\n  R_100:\n    min_size: 0.35\n    max_size: 2000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := LoadSymbolCatalog(path)
	require.NoError(t, err)
	assert.Len(t, catalog, 2)
	assert.InDelta(t, 5000, catalog["frxEURUSD"].MaxSize, 1e-9)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("symbols:\n  X:\n    min_size: 5\n    max_size: 1\n"), 0o600))
	_, err = LoadSymbolCatalog(bad)
	assert.Error(t, err)

	_, err = LoadSymbolCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
