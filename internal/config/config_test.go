package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "futures", cfg.Binance.Market)
	assert.True(t, cfg.Binance.Testnet)
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, cfg.Trading.Symbols)
	assert.Equal(t, "5m", cfg.Trading.Interval)
	assert.Equal(t, 150, cfg.Trading.Candles)
	assert.Equal(t, 80, cfg.Signal.ConfidenceThreshold)
	assert.Equal(t, []SessionWindow{{Start: 8, End: 16}}, cfg.Signal.Sessions)
	assert.Equal(t, 2500.0, cfg.Risk.AccountBalance)
	assert.Equal(t, 1.2, cfg.Risk.StopLossPercent)
	assert.Equal(t, "yaml-token", cfg.Telegram.Token)
	assert.Equal(t, "12345", cfg.Telegram.ChatID)
	assert.True(t, cfg.Storage.Influx.Enabled)
	assert.Equal(t, "signals", cfg.Storage.Influx.Bucket)

	// Значения, отсутствующие в файле, берутся по умолчанию
	assert.Equal(t, 20, cfg.Trading.OrderBookDepth)
	assert.Equal(t, 2.7, cfg.Risk.TakeProfitPercent)
	assert.Equal(t, 1.0, cfg.Risk.RiskPerTradePercent)
	assert.Equal(t, 0.15, cfg.Risk.MaxNotionalFraction)
	assert.Equal(t, 30, cfg.Signal.MinCandles)
	assert.Equal(t, 15, cfg.Scan.IntervalSeconds)
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "999")

	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "999", cfg.Telegram.ChatID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidRisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk:\n  stop_loss_percent: 0\n"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Asia/Karachi", cfg.Location().String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "пустой список символов", mutate: func(c *Config) { c.Trading.Symbols = nil }},
		{name: "неизвестный рынок", mutate: func(c *Config) { c.Binance.Market = "margin" }},
		{name: "мало свечей", mutate: func(c *Config) { c.Trading.Candles = 10 }},
		{name: "порог больше 100", mutate: func(c *Config) { c.Signal.ConfidenceThreshold = 101 }},
		{name: "неизвестный часовой пояс", mutate: func(c *Config) { c.Signal.Timezone = "Mars/Olympus" }},
		{name: "перевернутое окно сессии", mutate: func(c *Config) { c.Signal.Sessions = []SessionWindow{{Start: 12, End: 3}} }},
		{name: "час вне суток", mutate: func(c *Config) { c.Signal.Sessions = []SessionWindow{{Start: 0, End: 24}} }},
		{name: "нулевой стоп", mutate: func(c *Config) { c.Risk.StopLossPercent = 0 }},
		{name: "отрицательный тейк", mutate: func(c *Config) { c.Risk.TakeProfitPercent = -1 }},
		{name: "нулевой баланс", mutate: func(c *Config) { c.Risk.AccountBalance = 0 }},
		{name: "нулевой риск", mutate: func(c *Config) { c.Risk.RiskPerTradePercent = 0 }},
		{name: "нулевой лимит номинала", mutate: func(c *Config) { c.Risk.MaxNotionalFraction = 0 }},
		{name: "нулевой интервал сканирования", mutate: func(c *Config) { c.Scan.IntervalSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
