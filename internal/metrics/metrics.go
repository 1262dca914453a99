package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics реализует recorder.Metrics поверх Prometheus
type Metrics struct {
	ticks        prometheus.Counter
	rows         prometheus.Counter
	noData       *prometheus.CounterVec
	disconnected prometheus.Counter
	tickDuration prometheus.Histogram
}

// New создаёт и регистрирует метрики цикла опроса
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obdlog_ticks_total",
			Help: "Sampling loop iterations.",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obdlog_rows_written_total",
			Help: "Rows appended to the recording file.",
		}),
		noData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obdlog_nodata_total",
			Help: "Fields written empty because the query returned no data.",
		}, []string{"column"}),
		disconnected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obdlog_disconnected_ticks_total",
			Help: "Ticks started without a vehicle connection.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "obdlog_tick_duration_seconds",
			Help:    "Time spent querying and writing one row.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	reg.MustRegister(m.ticks, m.rows, m.noData, m.disconnected, m.tickDuration)
	return m
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) IncRows() {
	m.rows.Inc()
}

func (m *Metrics) IncNoData(column string) {
	m.noData.WithLabelValues(column).Inc()
}

func (m *Metrics) IncDisconnected() {
	m.disconnected.Inc()
}

// Serve отдаёт /metrics до отмены ctx
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Метрики доступны на http://%s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
