package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig ошибка валидации конфигурации
var ErrInvalidConfig = errors.New("некорректная конфигурация")

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance  BinanceConfig  `yaml:"binance"`
	Trading  TradingConfig  `yaml:"trading"`
	Scan     ScanConfig     `yaml:"scan"`
	Signal   SignalConfig   `yaml:"signal"`
	Risk     RiskConfig     `yaml:"risk"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
	// Market: spot или futures
	Market              string `yaml:"market"`
	KlinesTimeoutSecs   int    `yaml:"klines_timeout_seconds"`
	OrderBookTimeoutSec int    `yaml:"orderbook_timeout_seconds"`
}

// TradingConfig содержит список символов и параметры окна свечей
type TradingConfig struct {
	Symbols        []string `yaml:"symbols"`
	Interval       string   `yaml:"interval"`
	Candles        int      `yaml:"candles"`
	OrderBookDepth int      `yaml:"orderbook_depth"`
}

// ScanConfig настройки цикла сканирования
type ScanConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	SymbolPauseMs   int `yaml:"symbol_pause_ms"`
}

// SessionWindow окно часов [Start, End] включительно
type SessionWindow struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// SignalConfig пороги формирования сигнала
type SignalConfig struct {
	ConfidenceThreshold int             `yaml:"confidence_threshold"`
	MinCandles          int             `yaml:"min_candles"`
	MinLiquidityQuote   float64         `yaml:"min_liquidity_quote"`
	Timezone            string          `yaml:"timezone"`
	Sessions            []SessionWindow `yaml:"sessions"`
}

// RiskConfig параметры расчета риска
type RiskConfig struct {
	AccountBalance      float64 `yaml:"account_balance"`
	RiskPerTradePercent float64 `yaml:"risk_per_trade_percent"`
	StopLossPercent     float64 `yaml:"stop_loss_percent"`
	TakeProfitPercent   float64 `yaml:"take_profit_percent"`
	MaxNotionalFraction float64 `yaml:"max_notional_fraction"`
}

// TelegramConfig настройки уведомлений
type TelegramConfig struct {
	Token          string `yaml:"token"`
	ChatID         string `yaml:"chat_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig настройки хранения сигналов
type StorageConfig struct {
	CSVPath string       `yaml:"csv_path"`
	Influx  InfluxConfig `yaml:"influx"`
}

// InfluxConfig настройки InfluxDB
type InfluxConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// MetricsConfig адрес HTTP-эндпоинта метрик, пустой адрес отключает сервер
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// UIConfig настройки пользовательского интерфейса
type UIConfig struct {
	Enabled     bool `yaml:"enabled"`
	RefreshRate int  `yaml:"refresh_rate_ms"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	JSONFile string `yaml:"json_file"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Binance: BinanceConfig{
			Market:              "spot",
			KlinesTimeoutSecs:   10,
			OrderBookTimeoutSec: 8,
		},
		Trading: TradingConfig{
			Symbols:        []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT"},
			Interval:       "1m",
			Candles:        100,
			OrderBookDepth: 20,
		},
		Scan: ScanConfig{
			IntervalSeconds: 15,
			SymbolPauseMs:   1000,
		},
		Signal: SignalConfig{
			ConfidenceThreshold: 75,
			MinCandles:          30,
			MinLiquidityQuote:   100000,
			Timezone:            "Asia/Karachi",
			Sessions: []SessionWindow{
				{Start: 9, End: 11},
				{Start: 13, End: 22},
				{Start: 19, End: 23},
				{Start: 0, End: 4},
			},
		},
		Risk: RiskConfig{
			AccountBalance:      1000,
			RiskPerTradePercent: 1.0,
			StopLossPercent:     0.8,
			TakeProfitPercent:   2.7,
			MaxNotionalFraction: 0.15,
		},
		Telegram: TelegramConfig{
			TimeoutSeconds: 8,
		},
		Storage: StorageConfig{
			CSVPath: "signals_log.csv",
		},
		UI: UIConfig{
			RefreshRate: 1000,
		},
		Log: LogConfig{
			Level:    "info",
			File:     "app.log",
			JSONFile: "app.json.log",
		},
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию.
// Секреты из окружения (и .env, если есть) имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	// .env необязателен
	_ = godotenv.Load()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"TELEGRAM_TOKEN":     &c.Telegram.Token,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"BINANCE_API_KEY":    &c.Binance.APIKey,
		"BINANCE_API_SECRET": &c.Binance.APISecret,
		"INFLUX_TOKEN":       &c.Storage.Influx.Token,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
}

// Validate проверяет параметры, нарушение которых делает расчеты бессмысленными
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("%w: пустой список символов", ErrInvalidConfig)
	}
	if c.Binance.Market != "spot" && c.Binance.Market != "futures" {
		return fmt.Errorf("%w: неизвестный рынок %q", ErrInvalidConfig, c.Binance.Market)
	}
	if c.Signal.MinCandles <= 0 || c.Trading.Candles < c.Signal.MinCandles {
		return fmt.Errorf("%w: candles=%d меньше min_candles=%d", ErrInvalidConfig, c.Trading.Candles, c.Signal.MinCandles)
	}
	if c.Signal.ConfidenceThreshold < 0 || c.Signal.ConfidenceThreshold > 100 {
		return fmt.Errorf("%w: confidence_threshold=%d вне диапазона 0..100", ErrInvalidConfig, c.Signal.ConfidenceThreshold)
	}
	if _, err := time.LoadLocation(c.Signal.Timezone); err != nil {
		return fmt.Errorf("%w: часовой пояс %q: %v", ErrInvalidConfig, c.Signal.Timezone, err)
	}
	for _, w := range c.Signal.Sessions {
		if w.Start < 0 || w.End > 23 || w.Start > w.End {
			return fmt.Errorf("%w: окно сессии %d-%d", ErrInvalidConfig, w.Start, w.End)
		}
	}

	r := c.Risk
	switch {
	case r.StopLossPercent <= 0:
		return fmt.Errorf("%w: stop_loss_percent должен быть > 0", ErrInvalidConfig)
	case r.TakeProfitPercent <= 0:
		return fmt.Errorf("%w: take_profit_percent должен быть > 0", ErrInvalidConfig)
	case r.AccountBalance <= 0:
		return fmt.Errorf("%w: account_balance должен быть > 0", ErrInvalidConfig)
	case r.RiskPerTradePercent <= 0:
		return fmt.Errorf("%w: risk_per_trade_percent должен быть > 0", ErrInvalidConfig)
	case r.MaxNotionalFraction <= 0:
		return fmt.Errorf("%w: max_notional_fraction должен быть > 0", ErrInvalidConfig)
	}

	if c.Scan.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: interval_seconds должен быть > 0", ErrInvalidConfig)
	}
	return nil
}

// Location возвращает опорный часовой пояс сигналов
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Signal.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
