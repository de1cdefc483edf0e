// internal/storage/influxdb.go
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const signalsMeasurement = "signals"

// InfluxDBStorage хранит выпущенные сигналы в InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(ctx context.Context, cfg config.InfluxConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Name имя приемника для логов и метрик
func (s *InfluxDBStorage) Name() string { return "influxdb" }

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveSignal сохраняет сигнал
func (s *InfluxDBStorage) SaveSignal(ctx context.Context, signal *models.Signal) error {
	if err := s.writeAPI.WritePoint(ctx, signalPoint(signal)); err != nil {
		return fmt.Errorf("ошибка записи сигнала в InfluxDB: %w", err)
	}
	return nil
}

func signalPoint(signal *models.Signal) *write.Point {
	return influxdb2.NewPoint(
		signalsMeasurement,
		map[string]string{
			"symbol": signal.Symbol,
			"action": string(signal.Action),
		},
		map[string]interface{}{
			"id":            signal.ID,
			"price":         signal.Price,
			"stop_loss":     signal.StopLoss,
			"take_profit":   signal.TakeProfit,
			"position_size": signal.PositionSize,
			"confidence":    signal.Confidence,
			"reasons":       strings.Join(signal.Reasons, ";"),
			"volume":        signal.Volume,
			"avg_volume":    signal.AvgVolume,
			"orderbook":     signal.OrderBook,
			"momentum":      signal.Momentum,
		},
		signal.Timestamp,
	)
}

// GetSignalHistory получает историю сигналов
func (s *InfluxDBStorage) GetSignalHistory(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	// Формируем Flux-запрос
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -30d)
			|> filter(fn: (r) => r._measurement == "%s")
			|> filter(fn: (r) => r.symbol == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, signalsMeasurement, symbol, limit)

	// Выполняем запрос
	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории сигналов: %w", err)
	}

	var signals []*models.Signal
	for result.Next() {
		record := result.Record()

		action, _ := record.ValueByKey("action").(string)
		id, _ := record.ValueByKey("id").(string)
		price, _ := record.ValueByKey("price").(float64)
		stopLoss, _ := record.ValueByKey("stop_loss").(float64)
		takeProfit, _ := record.ValueByKey("take_profit").(float64)
		positionSize, _ := record.ValueByKey("position_size").(float64)
		confidence, _ := record.ValueByKey("confidence").(int64)
		reasons, _ := record.ValueByKey("reasons").(string)

		signal := &models.Signal{
			ID:           id,
			Symbol:       symbol,
			Action:       models.Action(action),
			Price:        price,
			StopLoss:     stopLoss,
			TakeProfit:   takeProfit,
			PositionSize: positionSize,
			Confidence:   int(confidence),
			Timestamp:    record.Time(),
		}
		if reasons != "" {
			signal.Reasons = strings.Split(reasons, ";")
		}

		signals = append(signals, signal)
	}

	// Проверяем на ошибки при обработке результатов
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return signals, nil
}

// healthTimeout ограничивает проверку соединения при старте
const healthTimeout = 5 * time.Second

// Open подключается к InfluxDB с ограничением времени проверки соединения
func Open(cfg config.InfluxConfig) (*InfluxDBStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	return NewInfluxDBStorage(ctx, cfg)
}
