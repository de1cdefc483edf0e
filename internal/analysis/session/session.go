package session

import (
	"time"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
)

// Gate фильтр ликвидных торговых сессий и минимального оборота
type Gate struct {
	windows  []config.SessionWindow
	location *time.Location
	now      func() time.Time
}

// NewGate создает фильтр. now может быть nil, тогда используется time.Now.
func NewGate(windows []config.SessionWindow, location *time.Location, now func() time.Time) *Gate {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{
		windows:  windows,
		location: location,
		now:      now,
	}
}

// IsHighLiquiditySession проверяет текущий час опорного часового пояса
func (g *Gate) IsHighLiquiditySession() bool {
	return g.IsHighLiquiditySessionAt(g.now())
}

// IsHighLiquiditySessionAt проверяет, попадает ли час t хотя бы в одно окно
func (g *Gate) IsHighLiquiditySessionAt(t time.Time) bool {
	hour := t.In(g.location).Hour()
	for _, w := range g.windows {
		if hour >= w.Start && hour <= w.End {
			return true
		}
	}
	return false
}

// LiquidityOK проверяет оборот последней свечи в котируемой валюте
func LiquidityOK(volume, price, minQuoteVolume float64) bool {
	return volume*price >= minQuoteVolume
}
