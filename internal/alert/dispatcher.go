package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/metrics"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/notify"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/storage"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/logger"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

// Formatter готовит текст оповещения
type Formatter func(sig *models.Signal) string

// Dispatcher подавляет повторы и передает сигнал в уведомления и журналы
type Dispatcher struct {
	memory    *Memory
	notifier  notify.Notifier
	recorders []storage.Recorder
	format    Formatter
	now       func() time.Time
}

// NewDispatcher создает диспетчер. now может быть nil, тогда используется time.Now.
func NewDispatcher(memory *Memory, notifier notify.Notifier, format Formatter, now func() time.Time, recorders ...storage.Recorder) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Dispatcher{
		memory:    memory,
		notifier:  notifier,
		recorders: recorders,
		format:    format,
		now:       now,
	}
}

// Dispatch отправляет сигнал ровно один раз за минуту для пары (символ, направление).
// Ошибки доставки логируются и не повторяются. Возвращает false для подавленного повтора.
func (d *Dispatcher) Dispatch(ctx context.Context, sig *models.Signal) bool {
	if sig == nil {
		return false
	}

	if !d.memory.Allow(sig.Symbol, sig.Action, d.now()) {
		metrics.SuppressedTotal.WithLabelValues(sig.Symbol, string(sig.Action)).Inc()
		logger.Debug("Повторный сигнал подавлен",
			zap.String("symbol", sig.Symbol),
			zap.String("action", string(sig.Action)))
		return false
	}

	if err := d.notifier.SendMessage(d.format(sig)); err != nil {
		metrics.DeliveryErrorsTotal.WithLabelValues("notify").Inc()
		logger.Error("Ошибка отправки уведомления", zap.String("symbol", sig.Symbol), zap.Error(err))
	}

	for _, rec := range d.recorders {
		if err := rec.SaveSignal(ctx, sig); err != nil {
			metrics.DeliveryErrorsTotal.WithLabelValues(rec.Name()).Inc()
			logger.Error("Ошибка сохранения сигнала",
				zap.String("sink", rec.Name()),
				zap.String("symbol", sig.Symbol),
				zap.Error(err))
		}
	}

	metrics.SignalsTotal.WithLabelValues(sig.Symbol, string(sig.Action)).Inc()
	logger.Info(alertLine(sig),
		zap.String("symbol", sig.Symbol),
		zap.String("action", string(sig.Action)),
		zap.Int("confidence", sig.Confidence),
		zap.Strings("reasons", sig.Reasons))
	return true
}

// alertLine строка журнала вида "[ALERT] BTC BUY | Conf: 77%"
func alertLine(sig *models.Signal) string {
	return fmt.Sprintf("[ALERT] %s %s | Conf: %d%%", sig.Asset, sig.Action, sig.Confidence)
}
