package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

// csvHeader столбцы журнала сигналов
var csvHeader = []string{
	"timestamp", "symbol", "action", "price", "sl", "tp", "pos_size",
	"confidence", "reasons", "volume", "avg_volume", "orderbook",
}

// CSVRecorder дописывает сигналы в CSV-файл, создавая заголовок при первом запуске
type CSVRecorder struct {
	path string
}

// NewCSVRecorder создает журнал сигналов по пути path
func NewCSVRecorder(path string) *CSVRecorder {
	return &CSVRecorder{path: path}
}

// Name имя приемника для логов и метрик
func (r *CSVRecorder) Name() string { return "csv" }

// SaveSignal дописывает строку сигнала
func (r *CSVRecorder) SaveSignal(_ context.Context, signal *models.Signal) error {
	_, err := os.Stat(r.path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка проверки файла журнала: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ошибка создания каталога журнала: %w", err)
		}
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ошибка открытия журнала сигналов: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if !exists {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("ошибка записи заголовка: %w", err)
		}
	}
	if err := w.Write(signalRow(signal)); err != nil {
		return fmt.Errorf("ошибка записи сигнала: %w", err)
	}
	w.Flush()
	return w.Error()
}

// signalRow колонка symbol содержит базовый актив (BTC для BTCUSDT)
func signalRow(s *models.Signal) []string {
	asset := s.Asset
	if asset == "" {
		asset = s.Symbol
	}
	return []string{
		s.FormattedTime(),
		asset,
		string(s.Action),
		formatFloat(s.Price),
		formatFloat(s.StopLoss),
		formatFloat(s.TakeProfit),
		formatFloat(s.PositionSize),
		strconv.Itoa(s.Confidence),
		strings.Join(s.Reasons, ";"),
		formatFloat(s.Volume),
		formatFloat(s.AvgVolume),
		formatFloat(s.OrderBook),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
