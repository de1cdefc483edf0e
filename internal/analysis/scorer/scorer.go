package scorer

import (
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

// BaseScore нейтральная оценка до применения правил
const BaseScore = 50

// Теги причин, попадающие в сигнал
const (
	ReasonBullishStructure = "Bullish structure"
	ReasonBearishStructure = "Bearish structure"
	ReasonEMABullish       = "Perfect EMA alignment bullish"
	ReasonEMABearish       = "Perfect EMA alignment bearish"
	ReasonOversold         = "Oversold"
	ReasonOverbought       = "Overbought"
	ReasonBidHeavy         = "Bid-heavy"
	ReasonAskHeavy         = "Ask-heavy"
)

const imbalanceThreshold = 0.2

// Input значения индикаторов одного цикла
type Input struct {
	EMA9      float64
	EMA21     float64
	EMA50     float64
	RSI14     float64
	RSI7      float64
	Structure models.StructureVerdict
	Imbalance float64
}

// Result итог оценки
type Result struct {
	// Score до ограничения диапазона, определяет направление
	Score int
	// Confidence ограничен 0..100 и сравнивается с порогом
	Confidence int
	Action     models.Action
	Reasons    []string
}

// Scorer начисляет баллы по таблице правил
type Scorer struct {
	threshold int
}

// NewScorer создает оценщик с порогом уверенности
func NewScorer(threshold int) *Scorer {
	return &Scorer{threshold: threshold}
}

// Score применяет правила независимо друг от друга и принимает решение
func (s *Scorer) Score(in Input) Result {
	score := BaseScore
	var reasons []string

	apply := func(cond bool, delta int, reason string) {
		if cond {
			score += delta
			reasons = append(reasons, reason)
		}
	}

	apply(in.Structure.Structure == models.StructureBull, 12, ReasonBullishStructure)
	apply(in.Structure.Structure == models.StructureBear, -12, ReasonBearishStructure)

	apply(in.EMA9 > in.EMA21 && in.EMA21 > in.EMA50, 20, ReasonEMABullish)
	apply(in.EMA9 < in.EMA21 && in.EMA21 < in.EMA50, -20, ReasonEMABearish)

	apply(in.RSI14 < 30 && in.RSI7 < 25, 15, ReasonOversold)
	apply(in.RSI14 > 70 && in.RSI7 > 65, -15, ReasonOverbought)

	apply(in.Imbalance > imbalanceThreshold, 10, ReasonBidHeavy)
	apply(in.Imbalance < -imbalanceThreshold, -10, ReasonAskHeavy)

	result := Result{
		Score:      score,
		Confidence: clamp(score, 0, 100),
		Reasons:    reasons,
	}

	// Направление по исходной оценке, допуск по ограниченной
	if result.Confidence >= s.threshold {
		switch {
		case score > BaseScore:
			result.Action = models.ActionBuy
		case score < BaseScore:
			result.Action = models.ActionSell
		}
	}
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
