package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/analysis/aggregator"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/risk"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

// risingMarket отдает растущий ряд и перевес покупателей, onKlines вызывается на каждый запрос свечей
type risingMarket struct {
	calls    atomic.Int32
	onKlines func(n int32)
}

func (m *risingMarket) GetKlines(_ context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	n := m.calls.Add(1)
	if m.onKlines != nil {
		m.onKlines(n)
	}

	candles := make([]models.Candle, limit)
	price := 100.0
	for i := range candles {
		candles[i] = models.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.Unix(int64(i)*60, 0),
			Open:     price,
			High:     price * 1.002,
			Low:      price * 0.998,
			Close:    price,
			Volume:   1000,
		}
		price *= 1.01
	}
	return candles, nil
}

func (m *risingMarket) GetOrderBook(_ context.Context, symbol string, _ int) (*models.OrderBookSnapshot, error) {
	return &models.OrderBookSnapshot{Symbol: symbol, BidVolume: 70, AskVolume: 30}, nil
}

func loopConfig() *config.Config {
	cfg := config.Default()
	cfg.Trading.Symbols = []string{"BTCUSDT"}
	cfg.Scan.SymbolPauseMs = 0
	return cfg
}

func openSession() time.Time {
	loc, _ := time.LoadLocation("Asia/Karachi")
	return time.Date(2025, 3, 10, 14, 30, 0, 0, loc)
}

func TestScanLoopStopsOnCancelledContext(t *testing.T) {
	market := &risingMarket{}
	analyzer := aggregator.NewAnalyzer(loopConfig(), market, openSession)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := scanLoop(ctx, analyzer, time.Hour, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, market.calls.Load())
}

func TestScanLoopRepeatsCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market := &risingMarket{onKlines: func(n int32) {
		if n == 3 {
			cancel()
		}
	}}
	analyzer := aggregator.NewAnalyzer(loopConfig(), market, openSession)

	var handled atomic.Int32
	err := scanLoop(ctx, analyzer, 10*time.Millisecond, func(context.Context, *models.Signal) {
		handled.Add(1)
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), market.calls.Load())
	assert.Equal(t, int32(3), handled.Load())
}

func TestScanLoopReturnsRiskError(t *testing.T) {
	cfg := loopConfig()
	cfg.Risk.StopLossPercent = 0
	analyzer := aggregator.NewAnalyzer(cfg, &risingMarket{}, openSession)

	done := make(chan error, 1)
	go func() { done <- scanLoop(context.Background(), analyzer, time.Hour, nil) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, risk.ErrInvalidStopDistance)
	case <-time.After(5 * time.Second):
		t.Fatal("цикл не остановился на ошибке риска")
	}
}
