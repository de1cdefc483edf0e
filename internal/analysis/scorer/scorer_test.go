package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

var neutralInput = Input{
	EMA9: 100, EMA21: 100, EMA50: 100,
	RSI14: 50, RSI7: 50,
	Structure: models.StructureVerdict{Structure: models.StructureNeutral},
}

func bullishInput() Input {
	return Input{
		EMA9: 103, EMA21: 102, EMA50: 101,
		RSI14: 25, RSI7: 20,
		Structure: models.StructureVerdict{Structure: models.StructureBull, Strength: 3},
		Imbalance: 0.25,
	}
}

func bearishInput() Input {
	return Input{
		EMA9: 99, EMA21: 100, EMA50: 101,
		RSI14: 80, RSI7: 75,
		Structure: models.StructureVerdict{Structure: models.StructureBear, Strength: 4},
		Imbalance: -0.3,
	}
}

func TestScoreNeutral(t *testing.T) {
	for _, threshold := range []int{0, 50, 75, 100} {
		res := NewScorer(threshold).Score(neutralInput)
		assert.Equal(t, 50, res.Score)
		assert.Equal(t, 50, res.Confidence)
		assert.Equal(t, models.ActionNone, res.Action, "порог %d", threshold)
		assert.Empty(t, res.Reasons)
	}
}

func TestScoreAllBullishRules(t *testing.T) {
	res := NewScorer(75).Score(bullishInput())

	assert.Equal(t, 107, res.Score)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, models.ActionBuy, res.Action)
	assert.Equal(t, []string{
		ReasonBullishStructure,
		ReasonEMABullish,
		ReasonOversold,
		ReasonBidHeavy,
	}, res.Reasons)
}

func TestScoreAllBearishRules(t *testing.T) {
	res := NewScorer(75).Score(bearishInput())

	assert.Equal(t, -7, res.Score)
	assert.Equal(t, 0, res.Confidence)
	// Ограниченная уверенность не проходит порог, сигнала нет
	assert.Equal(t, models.ActionNone, res.Action)
	assert.Equal(t, []string{
		ReasonBearishStructure,
		ReasonEMABearish,
		ReasonOverbought,
		ReasonAskHeavy,
	}, res.Reasons)
}

func TestScoreDirectionUsesUnclampedScore(t *testing.T) {
	// Порог 0 допускает любую уверенность, направление определяет score < 50
	res := NewScorer(0).Score(bearishInput())
	assert.Equal(t, 0, res.Confidence)
	assert.Equal(t, models.ActionSell, res.Action)

	// Score 107 ограничен до 100, но остается выше 50
	res = NewScorer(100).Score(bullishInput())
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, models.ActionBuy, res.Action)
}

func TestScoreThreshold(t *testing.T) {
	in := neutralInput
	in.EMA9, in.EMA21, in.EMA50 = 103, 102, 101
	in.Imbalance = 0.5

	tests := []struct {
		name      string
		threshold int
		expected  models.Action
	}{
		{name: "ниже порога", threshold: 81, expected: models.ActionNone},
		{name: "на пороге", threshold: 80, expected: models.ActionBuy},
		{name: "выше порога", threshold: 75, expected: models.ActionBuy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewScorer(tt.threshold).Score(in)
			assert.Equal(t, 80, res.Score)
			assert.Equal(t, tt.expected, res.Action)
		})
	}
}

func TestScoreSellBelowBase(t *testing.T) {
	in := neutralInput
	in.Structure = models.StructureVerdict{Structure: models.StructureBear, Strength: 3}

	res := NewScorer(30).Score(in)
	assert.Equal(t, 38, res.Score)
	assert.Equal(t, 38, res.Confidence)
	assert.Equal(t, models.ActionSell, res.Action)
	assert.Equal(t, []string{ReasonBearishStructure}, res.Reasons)
}

func TestScoreOpposingRulesCancel(t *testing.T) {
	in := bullishInput()
	in.Imbalance = -0.5 // -10 вместо +10

	res := NewScorer(75).Score(in)
	assert.Equal(t, 87, res.Score)
	assert.Contains(t, res.Reasons, ReasonAskHeavy)
	assert.NotContains(t, res.Reasons, ReasonBidHeavy)
}

func TestScoreImbalanceBoundary(t *testing.T) {
	in := neutralInput
	in.Imbalance = 0.2
	assert.Equal(t, 50, NewScorer(75).Score(in).Score)

	in.Imbalance = -0.2
	assert.Equal(t, 50, NewScorer(75).Score(in).Score)
}
