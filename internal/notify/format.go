package notify

import (
	"fmt"
	"math"
	"strings"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const maxReasonsInAlert = 2

// FormatAlert собирает текст сигнала для отправки
func FormatAlert(sig *models.Signal, stopLossPct, takeProfitPct float64) string {
	var riskReward float64
	if stopLossPct > 0 {
		riskReward = takeProfitPct / stopLossPct
	}
	slDistance := math.Abs(sig.Price - sig.StopLoss)
	tpDistance := math.Abs(sig.TakeProfit - sig.Price)

	quote := strings.TrimPrefix(sig.Symbol, sig.Asset)
	if quote == "" || quote == sig.Symbol {
		quote = "USDT"
	}

	reasons := sig.Reasons
	if len(reasons) > maxReasonsInAlert {
		reasons = reasons[:maxReasonsInAlert]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 %s %s Signal\n", sig.Asset, sig.Action)
	fmt.Fprintf(&b, "🕜 %s\n", sig.FormattedTime())
	fmt.Fprintf(&b, "💰 Entry: %.6f %s\n", sig.Price, quote)
	fmt.Fprintf(&b, "🎯 TP: %.6f (+$%.2f)\n", sig.TakeProfit, tpDistance)
	fmt.Fprintf(&b, "🛑 SL: %.6f (-$%.2f)\n", sig.StopLoss, slDistance)
	fmt.Fprintf(&b, "💎 Position: %.6f %s\n", sig.PositionSize, sig.Asset)
	fmt.Fprintf(&b, "⚖ Risk/Reward: 1:%.2f\n", riskReward)
	fmt.Fprintf(&b, "🏆 Confidence: %d%%\n", sig.Confidence)
	fmt.Fprintf(&b, "⚡ Reasons: %s", strings.Join(reasons, ", "))
	return b.String()
}
