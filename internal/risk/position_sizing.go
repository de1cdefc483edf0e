package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

var (
	// ErrInvalidStopDistance нулевое или отрицательное расстояние до стопа
	ErrInvalidStopDistance = errors.New("некорректное расстояние до стоп-лосса")
	// ErrUnknownAction расчет запрошен без направления
	ErrUnknownAction = errors.New("неизвестное направление сделки")
)

// Plan уровни и размер позиции для входа
type Plan struct {
	StopLoss       float64
	TakeProfit     float64
	PositionSize   float64
	StopDistance   float64
	TargetDistance float64
}

// RiskReward отношение цели к стопу
func (p Plan) RiskReward() float64 {
	if p.StopDistance == 0 {
		return 0
	}
	return p.TargetDistance / p.StopDistance
}

// Sizer рассчитывает стоп, цель и размер позиции при фиксированных параметрах риска
type Sizer struct {
	config config.RiskConfig
}

// NewSizer создает калькулятор позиции
func NewSizer(cfg config.RiskConfig) *Sizer {
	return &Sizer{config: cfg}
}

// Calculate рассчитывает план сделки. Размер позиции ограничен двумя условиями:
// убыток на стопе не больше risk_per_trade_percent баланса и номинал не больше
// max_notional_fraction баланса.
func (s *Sizer) Calculate(price float64, action models.Action) (Plan, error) {
	slDistance := price * s.config.StopLossPercent / 100
	tpDistance := price * s.config.TakeProfitPercent / 100

	if !(slDistance > 0) || math.IsInf(slDistance, 0) {
		return Plan{}, fmt.Errorf("%w: price=%v stop_loss_percent=%v", ErrInvalidStopDistance, price, s.config.StopLossPercent)
	}

	plan := Plan{StopDistance: slDistance, TargetDistance: tpDistance}
	switch action {
	case models.ActionBuy:
		plan.StopLoss = price - slDistance
		plan.TakeProfit = price + tpDistance
	case models.ActionSell:
		plan.StopLoss = price + slDistance
		plan.TakeProfit = price - tpDistance
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	riskAmount := s.config.AccountBalance * s.config.RiskPerTradePercent / 100
	bySize := riskAmount / slDistance
	byNotional := s.config.AccountBalance * s.config.MaxNotionalFraction / price
	plan.PositionSize = math.Min(bySize, byNotional)

	return plan, nil
}
