package structure

import (
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const (
	// DefaultLookback число последних пар свечей для оценки структуры
	DefaultLookback = 5
	// DefaultMomentumPeriod число последних свечей для оценки импульса
	DefaultMomentumPeriod = 5

	minConfirmations = 3
	momentumStep     = 0.005
)

// DetectStructure определяет рыночную структуру по последним lookback+1 свечам.
// Бычья структура: не менее трех пар с более высоким максимумом и минимумом,
// медвежья: не менее трех пар с более низким максимумом и минимумом.
func DetectStructure(candles []models.Candle, lookback int) models.StructureVerdict {
	neutral := models.StructureVerdict{Structure: models.StructureNeutral}
	if lookback <= 0 || len(candles) < lookback+2 {
		return neutral
	}

	window := candles[len(candles)-(lookback+1):]
	var bull, bear int
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		if cur.High > prev.High && cur.Low > prev.Low {
			bull++
		}
		if cur.High < prev.High && cur.Low < prev.Low {
			bear++
		}
	}

	if bull >= minConfirmations {
		return models.StructureVerdict{Structure: models.StructureBull, Strength: bull}
	}
	if bear >= minConfirmations {
		return models.StructureVerdict{Structure: models.StructureBear, Strength: bear}
	}
	return neutral
}

// CalculateMomentum считает изменения закрытия больше +0.5% и меньше -0.5%
// по последним period свечам. Возвращает +N или -N при N >= 3, иначе 0.
func CalculateMomentum(candles []models.Candle, period int) int {
	if period <= 0 || len(candles) < period {
		return 0
	}

	window := candles[len(candles)-period:]
	var positive, negative int
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Close
		if prev == 0 {
			continue
		}
		change := (window[i].Close - prev) / prev
		if change > momentumStep {
			positive++
		} else if change < -momentumStep {
			negative++
		}
	}

	if positive >= minConfirmations {
		return positive
	}
	if negative >= minConfirmations {
		return -negative
	}
	return 0
}
