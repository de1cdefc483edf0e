package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SignalsTotal сигналы, переданные в уведомления и журналы
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_signals_total", Help: "Сигналы, переданные в уведомления и журналы"},
		[]string{"symbol", "action"},
	)
	// SuppressedTotal повторы, подавленные в пределах минуты
	SuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_alerts_suppressed_total", Help: "Повторные оповещения, подавленные в пределах минуты"},
		[]string{"symbol", "action"},
	)
	// FetchErrorsTotal ошибки получения свечей и стакана, source: klines или orderbook
	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_fetch_errors_total", Help: "Ошибки получения рыночных данных"},
		[]string{"symbol", "source"},
	)
	// DeliveryErrorsTotal ошибки доставки по приемнику: notify, csv, influxdb
	DeliveryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_delivery_errors_total", Help: "Ошибки уведомлений и записи сигналов"},
		[]string{"sink"},
	)
	// CycleSeconds длительность одного прохода по всем символам
	CycleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "scalper_cycle_seconds", Help: "Длительность одного цикла сканирования", Buckets: prometheus.DefBuckets},
	)
)

func init() {
	prometheus.MustRegister(SignalsTotal, SuppressedTotal, FetchErrorsTotal, DeliveryErrorsTotal, CycleSeconds)
}

// Handler маршрутизатор с единственным путем /metrics
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Server создает сервер метрик. ListenAndServe и Shutdown вызывает владелец.
func Server(addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: Handler()}
}
