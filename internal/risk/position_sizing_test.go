package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

func defaultSizer() *Sizer {
	return NewSizer(config.Default().Risk)
}

func TestCalculateBuy(t *testing.T) {
	plan, err := defaultSizer().Calculate(100, models.ActionBuy)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, plan.StopDistance, 1e-12)
	assert.InDelta(t, 2.7, plan.TargetDistance, 1e-12)
	assert.InDelta(t, 99.2, plan.StopLoss, 1e-12)
	assert.InDelta(t, 102.7, plan.TakeProfit, 1e-12)
	// min(10/0.8 = 12.5, 150/100 = 1.5)
	assert.InDelta(t, 1.5, plan.PositionSize, 1e-12)
	assert.InDelta(t, 3.375, plan.RiskReward(), 1e-12)
}

func TestCalculateSellMirrorsLevels(t *testing.T) {
	plan, err := defaultSizer().Calculate(100, models.ActionSell)
	require.NoError(t, err)

	assert.InDelta(t, 100.8, plan.StopLoss, 1e-12)
	assert.InDelta(t, 97.3, plan.TakeProfit, 1e-12)
	assert.InDelta(t, 1.5, plan.PositionSize, 1e-12)
}

func TestCalculateRiskCapBinds(t *testing.T) {
	// Широкий стоп: ограничение по риску меньше ограничения по номиналу
	sizer := NewSizer(config.RiskConfig{
		AccountBalance:      1000,
		RiskPerTradePercent: 1,
		StopLossPercent:     10,
		TakeProfitPercent:   20,
		MaxNotionalFraction: 0.15,
	})
	plan, err := sizer.Calculate(100, models.ActionBuy)
	require.NoError(t, err)

	// min(10/10 = 1, 150/100 = 1.5)
	assert.InDelta(t, 1.0, plan.PositionSize, 1e-12)
}

func TestCalculateInvalidStopDistance(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		slPct float64
	}{
		{name: "нулевая цена", price: 0, slPct: 0.8},
		{name: "отрицательная цена", price: -5, slPct: 0.8},
		{name: "нулевой стоп", price: 100, slPct: 0},
		{name: "NaN цена", price: math.NaN(), slPct: 0.8},
		{name: "бесконечная цена", price: math.Inf(1), slPct: 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Risk
			cfg.StopLossPercent = tt.slPct
			_, err := NewSizer(cfg).Calculate(tt.price, models.ActionBuy)
			assert.ErrorIs(t, err, ErrInvalidStopDistance)
		})
	}
}

func TestCalculateUnknownAction(t *testing.T) {
	_, err := defaultSizer().Calculate(100, models.ActionNone)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
