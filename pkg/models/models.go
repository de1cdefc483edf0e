package models

import (
	"time"
)

// Candle представляет свечу
type Candle struct {
	Symbol   string
	Interval string
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// OrderBookSnapshot содержит суммарные объемы стакана на момент запроса
type OrderBookSnapshot struct {
	Symbol    string
	Timestamp time.Time
	BidVolume float64
	AskVolume float64
}

// Imbalance возвращает (bids - asks) / (bids + asks), 0 для пустого стакана
func (o *OrderBookSnapshot) Imbalance() float64 {
	if o == nil {
		return 0
	}
	total := o.BidVolume + o.AskVolume
	if total == 0 {
		return 0
	}
	return (o.BidVolume - o.AskVolume) / total
}

// Action направление торговой рекомендации
type Action string

const (
	ActionNone Action = ""
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Structure вердикт рыночной структуры
type Structure string

const (
	StructureBull    Structure = "bull"
	StructureBear    Structure = "bear"
	StructureNeutral Structure = "neutral"
)

// StructureVerdict вердикт структуры и число подтверждающих свечей
type StructureVerdict struct {
	Structure Structure
	Strength  int
}

// Signal представляет результат анализа символа
type Signal struct {
	ID           string
	Symbol       string
	Asset        string
	Action       Action
	Price        float64
	StopLoss     float64
	TakeProfit   float64
	PositionSize float64
	Confidence   int
	Reasons      []string
	Timestamp    time.Time

	// Диагностика
	Volume    float64
	AvgVolume float64
	OrderBook float64
	Momentum  int
	RSI14     float64
	RSI7      float64
	EMA50     float64
	EMA200    float64
	Structure string
}

// TimeLayout формат времени сигнала в отчетах
const TimeLayout = "2006-01-02 15:04:05 MST"

// FormattedTime возвращает время сигнала в часовом поясе сигнала
func (s *Signal) FormattedTime() string {
	return s.Timestamp.Format(TimeLayout)
}
