package exchange

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const (
	spotTestnetURL    = "https://testnet.binance.vision"
	futuresTestnetURL = "https://testnet.binancefuture.com"
)

// BinanceClient клиент для получения свечей и стакана с Binance
type BinanceClient struct {
	market  string
	futures *futures.Client
	spot    *binance.Client
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) (*BinanceClient, error) {
	if cfg.Market != "spot" && cfg.Market != "futures" {
		return nil, fmt.Errorf("неизвестный рынок: %q", cfg.Market)
	}

	futuresClient := futures.NewClient(cfg.APIKey, cfg.APISecret)
	spotClient := binance.NewClient(cfg.APIKey, cfg.APISecret)

	if cfg.Testnet {
		futuresClient.BaseURL = futuresTestnetURL
		spotClient.BaseURL = spotTestnetURL
	}

	return &BinanceClient{
		market:  cfg.Market,
		futures: futuresClient,
		spot:    spotClient,
	}, nil
}

// rawKline строковое представление свечи, общее для спота и фьючерсов
type rawKline struct {
	OpenTime                       int64
	Open, High, Low, Close, Volume string
}

// GetKlines получает последние свечи в хронологическом порядке
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	var raw []rawKline

	if c.market == "futures" {
		klines, err := c.futures.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения свечей: %w", err)
		}
		raw = make([]rawKline, len(klines))
		for i, k := range klines {
			raw[i] = rawKline{OpenTime: k.OpenTime, Open: k.Open, High: k.High, Low: k.Low, Close: k.Close, Volume: k.Volume}
		}
	} else {
		klines, err := c.spot.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения свечей: %w", err)
		}
		raw = make([]rawKline, len(klines))
		for i, k := range klines {
			raw[i] = rawKline{OpenTime: k.OpenTime, Open: k.Open, High: k.High, Low: k.Low, Close: k.Close, Volume: k.Volume}
		}
	}

	return convertKlines(symbol, interval, raw), nil
}

// GetOrderBook получает суммарные объемы bid/ask по depth уровням
func (c *BinanceClient) GetOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBookSnapshot, error) {
	var bids, asks []common.PriceLevel

	if c.market == "futures" {
		ob, err := c.futures.NewDepthService().
			Symbol(symbol).
			Limit(depth).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения стакана: %w", err)
		}
		bids, asks = ob.Bids, ob.Asks
	} else {
		ob, err := c.spot.NewDepthService().
			Symbol(symbol).
			Limit(depth).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения стакана: %w", err)
		}
		bids, asks = ob.Bids, ob.Asks
	}

	bidVolume, err := sumQuantity(bids)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга объема бида: %w", err)
	}
	askVolume, err := sumQuantity(asks)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга объема аска: %w", err)
	}

	return &models.OrderBookSnapshot{
		Symbol:    symbol,
		Timestamp: time.Now(),
		BidVolume: bidVolume,
		AskVolume: askVolume,
	}, nil
}

// convertKlines отбрасывает свечи с нечисловыми или неположительными ценами
// и повторяющимся временем открытия
func convertKlines(symbol, interval string, raw []rawKline) []models.Candle {
	candles := make([]models.Candle, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))

	for _, k := range raw {
		if _, dup := seen[k.OpenTime]; dup {
			continue
		}

		values, ok := parseFinite(k.Open, k.High, k.Low, k.Close, k.Volume)
		if !ok || values[3] <= 0 {
			continue
		}
		seen[k.OpenTime] = struct{}{}

		candles = append(candles, models.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(k.OpenTime),
			Open:     values[0],
			High:     values[1],
			Low:      values[2],
			Close:    values[3],
			Volume:   values[4],
		})
	}

	return candles
}

func parseFinite(fields ...string) ([]float64, bool) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

func sumQuantity(levels []common.PriceLevel) (float64, error) {
	var total float64
	for _, level := range levels {
		qty, err := strconv.ParseFloat(level.Quantity, 64)
		if err != nil {
			return 0, err
		}
		total += qty
	}
	return total, nil
}
