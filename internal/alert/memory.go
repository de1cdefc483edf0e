package alert

import (
	"time"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

// Key ключ повторного оповещения
type Key struct {
	Symbol string
	Action models.Action
}

// Memory помнит минуту последнего оповещения по каждой паре (символ, направление).
// Используется только из потока сканирования, блокировок нет.
type Memory struct {
	last map[Key]time.Time
}

// NewMemory создает пустую память оповещений
func NewMemory() *Memory {
	return &Memory{last: make(map[Key]time.Time)}
}

// Allow возвращает false, если для ключа уже было оповещение в минуту now,
// иначе запоминает минуту и возвращает true
func (m *Memory) Allow(symbol string, action models.Action, now time.Time) bool {
	key := Key{Symbol: symbol, Action: action}
	bucket := now.Truncate(time.Minute)

	if last, ok := m.last[key]; ok && last.Equal(bucket) {
		return false
	}
	m.last[key] = bucket
	return true
}

// Reset очищает память
func (m *Memory) Reset() {
	m.last = make(map[Key]time.Time)
}

// Len число запомненных ключей
func (m *Memory) Len() int {
	return len(m.last)
}
