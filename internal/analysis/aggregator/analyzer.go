package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/analysis/indicators"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/analysis/scorer"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/analysis/session"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/analysis/structure"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/metrics"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/risk"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/logger"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const (
	avgVolumePeriod = 20
	quoteAsset      = "USDT"
)

var (
	// ErrDataUnavailable свечи не получены, символ пропускается в этом цикле
	ErrDataUnavailable = errors.New("нет рыночных данных")
	// ErrInsufficientData история короче минимального окна
	ErrInsufficientData = errors.New("недостаточно свечей")
)

// MarketData источник свечей и стакана
type MarketData interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	GetOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBookSnapshot, error)
}

// SignalHandler получает каждый сформированный сигнал сразу после анализа символа
type SignalHandler func(ctx context.Context, sig *models.Signal)

// Analyzer собирает сигнал по символу из индикаторов, структуры, стакана и риска
type Analyzer struct {
	trading          config.TradingConfig
	signal           config.SignalConfig
	klinesTimeout    time.Duration
	orderBookTimeout time.Duration
	client           MarketData
	gate             *session.Gate
	scorer           *scorer.Scorer
	sizer            *risk.Sizer
	limiter          *rate.Limiter
	location         *time.Location
	now              func() time.Time
}

// NewAnalyzer создает анализатор. now может быть nil, тогда используется time.Now.
func NewAnalyzer(cfg *config.Config, client MarketData, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	location := cfg.Location()

	limit := rate.Inf
	if cfg.Scan.SymbolPauseMs > 0 {
		limit = rate.Every(time.Duration(cfg.Scan.SymbolPauseMs) * time.Millisecond)
	}

	return &Analyzer{
		trading:          cfg.Trading,
		signal:           cfg.Signal,
		klinesTimeout:    time.Duration(cfg.Binance.KlinesTimeoutSecs) * time.Second,
		orderBookTimeout: time.Duration(cfg.Binance.OrderBookTimeoutSec) * time.Second,
		client:           client,
		gate:             session.NewGate(cfg.Signal.Sessions, location, now),
		scorer:           scorer.NewScorer(cfg.Signal.ConfidenceThreshold),
		sizer:            risk.NewSizer(cfg.Risk),
		limiter:          rate.NewLimiter(limit, 1),
		location:         location,
		now:              now,
	}
}

// Scan последовательно анализирует символы, выдерживая паузу между ними.
// Ошибка возвращается только при нарушении параметров риска или отмене контекста.
func (a *Analyzer) Scan(ctx context.Context, handle SignalHandler) error {
	start := time.Now()
	defer func() { metrics.CycleSeconds.Observe(time.Since(start).Seconds()) }()

	for _, symbol := range a.trading.Symbols {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}

		signal, err := a.safeAnalyze(ctx, symbol)
		if err != nil {
			if errors.Is(err, risk.ErrInvalidStopDistance) {
				return fmt.Errorf("%s: %w", symbol, err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Логируем ошибку, но продолжаем для других символов
			logger.Warn("Символ пропущен", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if signal != nil && handle != nil {
			handle(ctx, signal)
		}
	}
	return nil
}

// GenerateSignals выполняет один цикл и возвращает все сигналы цикла
func (a *Analyzer) GenerateSignals(ctx context.Context) ([]*models.Signal, error) {
	var signals []*models.Signal
	err := a.Scan(ctx, func(_ context.Context, sig *models.Signal) {
		signals = append(signals, sig)
	})
	return signals, err
}

func (a *Analyzer) safeAnalyze(ctx context.Context, symbol string) (signal *models.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signal = nil
			err = fmt.Errorf("паника при анализе: %v", r)
		}
	}()
	return a.AnalyzeSymbol(ctx, symbol)
}

// AnalyzeSymbol формирует сигнал для одного символа. (nil, nil) означает,
// что символ не прошел фильтры или оценка недостаточна для входа.
func (a *Analyzer) AnalyzeSymbol(ctx context.Context, symbol string) (*models.Signal, error) {
	candles, err := a.fetchCandles(ctx, symbol)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues(symbol, "klines").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(candles) < a.signal.MinCandles {
		return nil, fmt.Errorf("%w: %d свечей (требуется %d)", ErrInsufficientData, len(candles), a.signal.MinCandles)
	}

	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	last := candles[len(candles)-1]
	price, volume := last.Close, last.Volume
	avgVolume := indicators.AverageVolume(volumes, avgVolumePeriod)

	ema9 := indicators.Last(indicators.EMA(closes, 9))
	ema21 := indicators.Last(indicators.EMA(closes, 21))
	ema50 := indicators.Last(indicators.EMA(closes, 50))
	ema200 := ema50
	if len(closes) >= 200 {
		ema200 = indicators.Last(indicators.EMA(closes, 200))
	}

	rsi14 := indicators.Last(indicators.RSI(closes, 14))
	rsi7 := indicators.Last(indicators.RSI(closes, 7))

	verdict := structure.DetectStructure(candles, structure.DefaultLookback)
	imbalance := a.fetchImbalance(ctx, symbol)
	momentum := structure.CalculateMomentum(candles, structure.DefaultMomentumPeriod)

	if !a.gate.IsHighLiquiditySession() {
		logger.Debug("Вне ликвидной сессии", zap.String("symbol", symbol))
		return nil, nil
	}
	if !session.LiquidityOK(volume, price, a.signal.MinLiquidityQuote) {
		logger.Debug("Недостаточный оборот",
			zap.String("symbol", symbol),
			zap.Float64("quote_volume", volume*price))
		return nil, nil
	}

	result := a.scorer.Score(scorer.Input{
		EMA9:      ema9,
		EMA21:     ema21,
		EMA50:     ema50,
		RSI14:     rsi14,
		RSI7:      rsi7,
		Structure: verdict,
		Imbalance: imbalance,
	})
	logger.Debug("AGGREGATOR: оценка завершена",
		zap.String("symbol", symbol),
		zap.Int("score", result.Score),
		zap.Int("confidence", result.Confidence),
		zap.Strings("reasons", result.Reasons))
	if result.Action == models.ActionNone {
		return nil, nil
	}

	plan, err := a.sizer.Calculate(price, result.Action)
	if err != nil {
		return nil, err
	}

	return &models.Signal{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Asset:        strings.TrimSuffix(symbol, quoteAsset),
		Action:       result.Action,
		Price:        price,
		StopLoss:     round(plan.StopLoss, 6),
		TakeProfit:   round(plan.TakeProfit, 6),
		PositionSize: round(plan.PositionSize, 6),
		Confidence:   result.Confidence,
		Reasons:      result.Reasons,
		Timestamp:    a.now().In(a.location),
		Volume:       volume,
		AvgVolume:    avgVolume,
		OrderBook:    round(imbalance, 3),
		Momentum:     momentum,
		RSI14:        round(rsi14, 2),
		RSI7:         round(rsi7, 2),
		EMA50:        round(ema50, 6),
		EMA200:       round(ema200, 6),
		Structure:    fmt.Sprintf("%s (strength:%d)", verdict.Structure, verdict.Strength),
	}, nil
}

func (a *Analyzer) fetchCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	if a.klinesTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.klinesTimeout)
		defer cancel()
	}
	return a.client.GetKlines(ctx, symbol, a.trading.Interval, a.trading.Candles)
}

// fetchImbalance при ошибке стакана возвращает 0, анализ продолжается
func (a *Analyzer) fetchImbalance(ctx context.Context, symbol string) float64 {
	if a.orderBookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.orderBookTimeout)
		defer cancel()
	}

	ob, err := a.client.GetOrderBook(ctx, symbol, a.trading.OrderBookDepth)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues(symbol, "orderbook").Inc()
		logger.Warn("Предупреждение: анализ стакана недоступен", zap.String("symbol", symbol), zap.Error(err))
		return 0
	}
	return ob.Imbalance()
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
