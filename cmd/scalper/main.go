package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/alert"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/analysis/aggregator"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/exchange"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/metrics"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/notify"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/risk"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/storage"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/ui"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/logger"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const historySize = 1

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		JSONFile: cfg.Log.JSONFile,
		Console:  !cfg.UI.Enabled,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Сканер остановлен с ошибкой", zap.Error(err))
	}
	logger.Info("Завершение работы")
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := exchange.NewBinanceClient(cfg.Binance)
	if err != nil {
		return fmt.Errorf("ошибка инициализации клиента биржи: %w", err)
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID,
		time.Duration(cfg.Telegram.TimeoutSeconds)*time.Second)
	if err != nil {
		logger.Error("Telegram недоступен, оповещения только в журнал", zap.Error(err))
		notifier = notify.Nop{}
	}

	recorders := []storage.Recorder{storage.NewCSVRecorder(cfg.Storage.CSVPath)}
	var influx *storage.InfluxDBStorage
	if cfg.Storage.Influx.Enabled {
		influx, err = storage.Open(cfg.Storage.Influx)
		if err != nil {
			logger.Error("InfluxDB недоступна, запись только в CSV", zap.Error(err))
		} else {
			defer influx.Close()
			recorders = append(recorders, influx)
		}
	}

	dispatcher := alert.NewDispatcher(alert.NewMemory(), notifier, func(sig *models.Signal) string {
		return notify.FormatAlert(sig, cfg.Risk.StopLossPercent, cfg.Risk.TakeProfitPercent)
	}, nil, recorders...)
	analyzer := aggregator.NewAnalyzer(cfg, client, nil)

	var dashboard *ui.TermUI
	if cfg.UI.Enabled {
		dashboard = ui.NewTermUI(cfg.UI, cfg.Log.JSONFile)
		if influx != nil {
			loadHistory(ctx, influx, cfg.Trading.Symbols, dashboard)
		}
	}

	logger.Info("Сканер запущен",
		zap.Strings("symbols", cfg.Trading.Symbols),
		zap.String("market", cfg.Binance.Market),
		zap.String("interval", cfg.Trading.Interval),
		zap.Int("threshold", cfg.Signal.ConfidenceThreshold))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scanLoop(ctx, analyzer, time.Duration(cfg.Scan.IntervalSeconds)*time.Second,
			func(ctx context.Context, sig *models.Signal) {
				if dispatcher.Dispatch(ctx, sig) && dashboard != nil {
					dashboard.AddSignal(sig)
				}
			})
	})

	if cfg.Metrics.Addr != "" {
		srv := metrics.Server(cfg.Metrics.Addr)
		g.Go(func() error {
			logger.Info("Метрики доступны", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ошибка сервера метрик: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if dashboard != nil {
		g.Go(func() error {
			if err := dashboard.Start(ctx); err != nil {
				return err
			}
			// Выход из UI завершает программу
			return context.Canceled
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// scanLoop выполняет циклы сканирования до отмены ctx. Первый цикл запускается сразу.
func scanLoop(ctx context.Context, analyzer *aggregator.Analyzer, interval time.Duration, handle aggregator.SignalHandler) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := analyzer.Scan(ctx, handle); err != nil {
			if errors.Is(err, risk.ErrInvalidStopDistance) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Ошибка цикла сканирования", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// loadHistory показывает в панели последние сохраненные сигналы
func loadHistory(ctx context.Context, influx *storage.InfluxDBStorage, symbols []string, dashboard *ui.TermUI) {
	for _, symbol := range symbols {
		history, err := influx.GetSignalHistory(ctx, symbol, historySize)
		if err != nil {
			logger.Warn("Ошибка чтения истории сигналов", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		dashboard.UpdateSignals(history)
	}
}
